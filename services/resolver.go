package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ddionrails/models"
)

// PlaceholderName steht für einen fehlenden Verweis. Statt NULL zeigt der
// Fremdschlüssel auf eine Entität mit diesem Namen.
const PlaceholderName = "none"

// Kind ist eine Vokabular-Art, die per Name aufgelöst wird.
type Kind string

const (
	KindPeriod            Kind = "period"
	KindAnalysisUnit      Kind = "analysis_unit"
	KindConceptualDataset Kind = "conceptual_dataset"
	KindConcept           Kind = "concept"
	KindTopic             Kind = "topic"
)

// Resolver findet Vokabular-Einträge über ihren Namen und legt fehlende an.
type Resolver struct {
	Logger *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{Logger: logger}
}

// Resolve liefert die ID des Eintrags (study, kind, name). Ein leerer Name wird zum Platzhalter.
// Topics sind global eindeutig; die Studie wird nur beim Anlegen gesetzt.
func (r *Resolver) Resolve(ctx context.Context, tx *gorm.DB, study *models.Study, kind Kind, name string) (uint, error) {
	name = NormalizeName(name)
	if name == "" {
		name = PlaceholderName
	}
	db := tx.WithContext(ctx)

	var (
		id  uint
		err error
	)
	switch kind {
	case KindPeriod:
		var row models.Period
		err = db.Where(models.Period{StudyID: study.ID, Name: name}).FirstOrCreate(&row).Error
		id = row.ID
	case KindAnalysisUnit:
		var row models.AnalysisUnit
		err = db.Where(models.AnalysisUnit{StudyID: study.ID, Name: name}).FirstOrCreate(&row).Error
		id = row.ID
	case KindConceptualDataset:
		var row models.ConceptualDataset
		err = db.Where(models.ConceptualDataset{StudyID: study.ID, Name: name}).FirstOrCreate(&row).Error
		id = row.ID
	case KindConcept:
		var row models.Concept
		err = db.Where(models.Concept{StudyID: study.ID, Name: name}).FirstOrCreate(&row).Error
		id = row.ID
	case KindTopic:
		var row models.Topic
		err = db.Where(models.Topic{Name: name}).Attrs(models.Topic{StudyID: study.ID}).FirstOrCreate(&row).Error
		id = row.ID
	default:
		return 0, fmt.Errorf("resolve %q: unsupported kind %q", name, kind)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "resolve %s %q", kind, name)
	}
	r.Logger.Debug("Verweis aufgelöst", zap.String("kind", string(kind)), zap.String("name", name), zap.Uint("id", id))
	return id, nil
}

// Role benennt die Seite einer Transformation in Fehlermeldungen.
type Role string

const (
	RoleOrigin Role = "Origin"
	RoleTarget Role = "Target"
)

type variableKey struct {
	study, dataset, name string
}

// VariableLookup sucht Variablen über (Studie, Datensatz, Name) und merkt sich
// die letzten Treffer. Eine Instanz gehört genau einem Importlauf.
type VariableLookup struct {
	cache *lru.Cache[variableKey, uuid.UUID]
}

func NewVariableLookup(size int) (*VariableLookup, error) {
	cache, err := lru.New[variableKey, uuid.UUID](size)
	if err != nil {
		return nil, err
	}
	return &VariableLookup{cache: cache}, nil
}

// Lookup liefert die ID der Variable. Fehlschläge werden nicht gecacht.
func (l *VariableLookup) Lookup(ctx context.Context, tx *gorm.DB, role Role, study, dataset, name string) (uuid.UUID, error) {
	key := variableKey{study: NormalizeName(study), dataset: NormalizeName(dataset), name: NormalizeName(name)}
	if id, ok := l.cache.Get(key); ok {
		return id, nil
	}

	var variable models.Variable
	err := tx.WithContext(ctx).
		Select("variables.id").
		Joins("JOIN datasets ON datasets.id = variables.dataset_id").
		Joins("JOIN studies ON studies.id = datasets.study_id").
		Where("studies.name = ? AND datasets.name = ? AND variables.name = ?", key.study, key.dataset, key.name).
		Take(&variable).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, errors.Wrapf(ErrVariableNotFound, "%s variable %s/%s/%s does not exist", role, key.study, key.dataset, key.name)
	}
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "lookup %s variable %s/%s/%s", role, key.study, key.dataset, key.name)
	}
	l.cache.Add(key, variable.ID)
	return variable.ID, nil
}

// Len gibt die Anzahl gecachter Variablen zurück.
func (l *VariableLookup) Len() int {
	return l.cache.Len()
}
