package services

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ddionrails/models"
	"ddionrails/records"
)

// instrumentImporter importiert ein Instrument je JSON-Datei mit seinen Fragen.
// Fragen stehen unter "questions" als Objekt (Schlüssel = Name) oder Liste.
type instrumentImporter struct{ *importEnv }

func (i *instrumentImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	for _, rec := range recs {
		if err := i.importInstrument(ctx, db, rec); err != nil {
			return err
		}
	}
	return nil
}

func (i *instrumentImporter) importInstrument(ctx context.Context, db *gorm.DB, rec *records.Record) error {
	name, ok := nameOf(rec, "name", "instrument")
	if !ok {
		return invalidRecord(rec, "instrument without name")
	}
	var instrument models.Instrument
	if err := db.Where(models.Instrument{StudyID: i.study.ID, Name: name}).FirstOrCreate(&instrument).Error; err != nil {
		return errors.Wrapf(err, "get instrument %q", name)
	}

	period, _ := rec.Ref("period", "period_name")
	periodID, err := i.resolver.Resolve(ctx, db, i.study, KindPeriod, period)
	if err != nil {
		return err
	}
	analysisUnit, _ := rec.Ref("analysis_unit", "analysis_unit_name")
	analysisUnitID, err := i.resolver.Resolve(ctx, db, i.study, KindAnalysisUnit, analysisUnit)
	if err != nil {
		return err
	}
	instrument.PeriodID = &periodID
	instrument.AnalysisUnitID = &analysisUnitID
	instrument.Label = text(rec, "label")
	instrument.LabelDE = text(rec, "label_de")
	instrument.Description = text(rec, "description")
	if err := db.Save(&instrument).Error; err != nil {
		return errors.Wrapf(err, "save instrument %q", name)
	}

	questions := gjson.Get(rec.Raw, "questions")
	if !questions.Exists() {
		return nil
	}
	questionRecs, err := records.FromJSON(questions)
	if err != nil {
		return errors.Wrapf(err, "questions of instrument %q", name)
	}
	for _, q := range questionRecs {
		if err := i.importQuestion(ctx, db, &instrument, q); err != nil {
			return err
		}
	}
	return nil
}

func (i *instrumentImporter) importQuestion(ctx context.Context, db *gorm.DB, instrument *models.Instrument, rec *records.Record) error {
	name, ok := nameOf(rec, "name", "question")
	if !ok {
		if name = NormalizeName(rec.Key); name == "" {
			return invalidRecord(rec, "question without name in instrument %q", instrument.Name)
		}
	}
	var question models.Question
	if err := db.Where(models.Question{InstrumentID: instrument.ID, Name: name}).FirstOrCreate(&question).Error; err != nil {
		return errors.Wrapf(err, "get question %s/%s", instrument.Name, name)
	}

	sortID := rec.Index
	if raw, ok := rec.Ref("sn", "sort_id"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return invalidRecord(rec, "sort id %q of question %s/%s", raw, instrument.Name, name)
		}
		sortID = n
	}
	question.SortID = &sortID
	question.Label = text(rec, "label")
	question.LabelDE = text(rec, "label_de")
	question.Description = text(rec, "description")
	question.Instruction = text(rec, "instruction")
	question.InstructionDE = text(rec, "instruction_de")
	if items := gjson.Get(rec.Raw, "items"); items.Exists() {
		question.Items = datatypes.JSON(items.Raw)
	}

	if err := db.Save(&question).Error; err != nil {
		return errors.Wrapf(err, "save question %s/%s", instrument.Name, name)
	}
	i.index(ctx, "question", question.ID.String(), question)
	return nil
}

// questionVariableImporter verknüpft Fragen mit Variablen.
type questionVariableImporter struct{ *importEnv }

func (i *questionVariableImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	for _, rec := range recs {
		instrument, _ := rec.Ref("instrument", "instrument_name")
		question, _ := rec.Ref("question", "question_name")
		dataset, _ := rec.Ref("dataset", "dataset_name")
		variable, _ := rec.Ref("variable", "variable_name")

		questionID, err := findQuestionID(ctx, db, i.study.ID, instrument, question)
		if err != nil {
			return err
		}
		variableID, err := findVariableID(ctx, db, i.study.ID, dataset, variable)
		if err != nil {
			return err
		}
		link := models.QuestionVariable{QuestionID: questionID, VariableID: variableID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return errors.Wrapf(err, "link question %s/%s to variable %s/%s", instrument, question, dataset, variable)
		}
	}
	return nil
}

// conceptQuestionImporter verknüpft Konzepte mit Fragen; fehlende Konzepte werden angelegt.
type conceptQuestionImporter struct{ *importEnv }

func (i *conceptQuestionImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	for _, rec := range recs {
		concept, ok := nameOf(rec, "concept", "concept_name")
		if !ok {
			return invalidRecord(rec, "link without concept")
		}
		instrument, _ := rec.Ref("instrument", "instrument_name")
		question, _ := rec.Ref("question", "question_name")

		conceptID, err := i.resolver.Resolve(ctx, db, i.study, KindConcept, concept)
		if err != nil {
			return err
		}
		questionID, err := findQuestionID(ctx, db, i.study.ID, instrument, question)
		if err != nil {
			return err
		}
		link := models.ConceptQuestion{QuestionID: questionID, ConceptID: conceptID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return errors.Wrapf(err, "link concept %q to question %s/%s", concept, instrument, question)
		}
	}
	return nil
}
