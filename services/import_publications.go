package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"ddionrails/models"
	"ddionrails/records"
)

// attachmentImporter hängt Links an die Studie oder eines ihrer Objekte.
// Die Spalte "type" bestimmt das Ziel (study, dataset, variable, instrument, question).
type attachmentImporter struct{ *importEnv }

func (i *attachmentImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	for _, rec := range recs {
		url, ok := rec.Ref("url")
		if !ok {
			return invalidRecord(rec, "attachment without url")
		}
		var attachment models.Attachment
		if err := db.Where(models.Attachment{ContextStudyID: i.study.ID, URL: url}).FirstOrCreate(&attachment).Error; err != nil {
			return errors.Wrapf(err, "get attachment %q", url)
		}
		attachment.URLText = text(rec, "url_text")
		attachment.StudyID, attachment.DatasetID, attachment.VariableID = nil, nil, nil
		attachment.InstrumentID, attachment.QuestionID = nil, nil

		target, err := i.target(ctx, db, rec)
		if err != nil {
			return errors.Wrapf(err, "attachment %q", url)
		}
		kind, _ := nameOf(rec, "type")
		switch kind {
		case "study":
			attachment.StudyID = &target
		case "dataset":
			attachment.DatasetID = &target
		case "variable":
			attachment.VariableID = &target
		case "instrument":
			attachment.InstrumentID = &target
		case "question":
			attachment.QuestionID = &target
		}

		if err := db.Save(&attachment).Error; err != nil {
			return errors.Wrapf(err, "save attachment %q", url)
		}
	}
	return nil
}

func (i *attachmentImporter) target(ctx context.Context, db *gorm.DB, rec *records.Record) (uuid.UUID, error) {
	kind, _ := nameOf(rec, "type")
	dataset, _ := rec.Ref("dataset", "dataset_name")
	instrument, _ := rec.Ref("instrument", "instrument_name")
	switch kind {
	case "study":
		name, ok := nameOf(rec, "study", "study_name")
		if !ok || name == i.study.Name {
			return i.study.ID, nil
		}
		var study models.Study
		err := db.Where("name = ?", name).Take(&study).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, errors.Wrapf(ErrStudyNotFound, "study %q", name)
		}
		return study.ID, err
	case "dataset":
		d, err := findDataset(ctx, db, i.study.ID, dataset)
		if err != nil {
			return uuid.Nil, err
		}
		return d.ID, nil
	case "variable":
		variable, _ := rec.Ref("variable", "variable_name")
		return findVariableID(ctx, db, i.study.ID, dataset, variable)
	case "instrument":
		in, err := findInstrument(ctx, db, i.study.ID, instrument)
		if err != nil {
			return uuid.Nil, err
		}
		return in.ID, nil
	case "question":
		question, _ := rec.Ref("question", "question_name")
		return findQuestionID(ctx, db, i.study.ID, instrument, question)
	default:
		return uuid.Nil, invalidRecord(rec, "unknown attachment type %q", kind)
	}
}

// publicationImporter importiert Publikationen, eindeutig über (Studie, Name).
type publicationImporter struct{ *importEnv }

func (i *publicationImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	for _, rec := range recs {
		name, ok := nameOf(rec, "name", "publication", "publication_name")
		if !ok {
			return invalidRecord(rec, "publication without name")
		}
		var publication models.Publication
		if err := db.Where(models.Publication{StudyID: i.study.ID, Name: name}).FirstOrCreate(&publication).Error; err != nil {
			return errors.Wrapf(err, "get publication %q", name)
		}
		publication.SubType = text(rec, "sub_type")
		publication.Title = text(rec, "title")
		publication.Author = text(rec, "author")
		publication.Year = text(rec, "year")
		publication.Abstract = text(rec, "abstract")
		publication.Cite = text(rec, "cite")
		publication.Image = text(rec, "image")
		publication.URL = text(rec, "url")
		publication.DOI = text(rec, "doi")
		publication.Studies = text(rec, "studies")

		if err := db.Save(&publication).Error; err != nil {
			return errors.Wrapf(err, "save publication %q", name)
		}
		i.index(ctx, "publication", i.study.Name+"/"+publication.Name, publication)
	}
	return nil
}
