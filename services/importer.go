package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ddionrails/models"
	"ddionrails/records"
)

// Importer schreibt die Datensätze einer Eingabedatei in die Datenbank.
type Importer interface {
	Import(ctx context.Context, recs []*records.Record) error
}

// importEnv bündelt, was alle Importer einer Studie brauchen.
type importEnv struct {
	study    *models.Study
	db       *gorm.DB
	logger   *zap.Logger
	resolver *Resolver
	indexer  Indexer
}

func (e *importEnv) index(ctx context.Context, kind, id string, document any) {
	if err := e.indexer.Index(ctx, kind, id, document); err != nil {
		e.logger.Warn("Indexierung fehlgeschlagen", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
	}
}

// text liest ein Textfeld normalisiert, fehlende Felder ergeben "".
func text(rec *records.Record, keys ...string) string {
	return NormalizeText(rec.StringOr("", keys...))
}

// nameOf liest einen Namen bzw. Verweis; leere Zellen zählen als fehlend.
func nameOf(rec *records.Record, keys ...string) (string, bool) {
	s, ok := rec.Ref(keys...)
	if !ok {
		return "", false
	}
	s = NormalizeName(s)
	return s, s != ""
}

func invalidRecord(rec *records.Record, format string, args ...any) error {
	return errors.Wrapf(ErrInvalidRecord, "record %d: %s", rec.Index+1, fmt.Sprintf(format, args...))
}

func findDataset(ctx context.Context, db *gorm.DB, studyID uuid.UUID, name string) (*models.Dataset, error) {
	var dataset models.Dataset
	err := db.WithContext(ctx).Where("study_id = ? AND name = ?", studyID, NormalizeName(name)).Take(&dataset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrDatasetNotFound, "dataset %q", name)
	}
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

func findVariableID(ctx context.Context, db *gorm.DB, studyID uuid.UUID, dataset, name string) (uuid.UUID, error) {
	var variable models.Variable
	err := db.WithContext(ctx).
		Select("variables.id").
		Joins("JOIN datasets ON datasets.id = variables.dataset_id").
		Where("datasets.study_id = ? AND datasets.name = ? AND variables.name = ?", studyID, NormalizeName(dataset), NormalizeName(name)).
		Take(&variable).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, errors.Wrapf(ErrVariableNotFound, "variable %s/%s", dataset, name)
	}
	return variable.ID, err
}

func findInstrument(ctx context.Context, db *gorm.DB, studyID uuid.UUID, name string) (*models.Instrument, error) {
	var instrument models.Instrument
	err := db.WithContext(ctx).Where("study_id = ? AND name = ?", studyID, NormalizeName(name)).Take(&instrument).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrInstrumentNotFound, "instrument %q", name)
	}
	if err != nil {
		return nil, err
	}
	return &instrument, nil
}

func findQuestionID(ctx context.Context, db *gorm.DB, studyID uuid.UUID, instrument, name string) (uuid.UUID, error) {
	var question models.Question
	err := db.WithContext(ctx).
		Select("questions.id").
		Joins("JOIN instruments ON instruments.id = questions.instrument_id").
		Where("instruments.study_id = ? AND instruments.name = ? AND questions.name = ?", studyID, NormalizeName(instrument), NormalizeName(name)).
		Take(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, errors.Wrapf(ErrQuestionNotFound, "question %s/%s", instrument, name)
	}
	return question.ID, err
}

func findConcept(ctx context.Context, db *gorm.DB, studyID uuid.UUID, name string) (*models.Concept, error) {
	var concept models.Concept
	err := db.WithContext(ctx).Where("study_id = ? AND name = ?", studyID, NormalizeName(name)).Take(&concept).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrConceptNotFound, "concept %q", name)
	}
	if err != nil {
		return nil, err
	}
	return &concept, nil
}
