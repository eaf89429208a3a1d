package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"ddionrails/models"
	"ddionrails/records"
)

// studyImporter übernimmt die Metadaten aus study.md in die Studie des Imports.
type studyImporter struct{ *importEnv }

func (i *studyImporter) Import(ctx context.Context, recs []*records.Record) error {
	study := i.study
	for _, rec := range recs {
		if v, ok := rec.String("label"); ok {
			study.Label = NormalizeText(v)
		}
		if v, ok := rec.String("label_de"); ok {
			study.LabelDE = NormalizeText(v)
		}
		if v, ok := rec.String("description"); ok {
			study.Description = strings.TrimSpace(v)
		}
		if v, ok := rec.String("repo"); ok {
			study.Repo = strings.TrimSpace(v)
		}
		if v, ok := rec.Get("config"); ok {
			config, isMap := v.(map[string]any)
			if !isMap {
				return invalidRecord(rec, "config must be a mapping")
			}
			study.Config = datatypes.JSONMap(config)
		}
		if v, ok := rec.Get("topic_languages"); ok {
			languages, err := stringList(v)
			if err != nil {
				return invalidRecord(rec, "topic_languages: %v", err)
			}
			study.TopicLanguages = languages
		}
	}
	if err := i.db.WithContext(ctx).Save(study).Error; err != nil {
		return errors.Wrapf(err, "save study %q", study.Name)
	}
	i.index(ctx, "study", study.ID.String(), study)
	return nil
}

func stringList(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, errors.Errorf("expected a list, got %T", v)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, records.Stringify(item))
	}
	return out, nil
}

// topicCSVImporter baut den Themenbaum aus topics.csv.
type topicCSVImporter struct{ *importEnv }

func (i *topicCSVImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	for _, rec := range recs {
		name, ok := nameOf(rec, "name", "topic", "topic_name")
		if !ok {
			return invalidRecord(rec, "topic without name")
		}
		id, err := i.resolver.Resolve(ctx, db, i.study, KindTopic, name)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"label":       text(rec, "label"),
			"label_de":    text(rec, "label_de"),
			"description": text(rec, "description"),
		}
		if parent, ok := nameOf(rec, "parent", "parent_name"); ok {
			parentID, err := i.resolver.Resolve(ctx, db, i.study, KindTopic, parent)
			if err != nil {
				return err
			}
			updates["parent_id"] = parentID
		}
		if err := db.Model(&models.Topic{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return errors.Wrapf(err, "update topic %q", name)
		}
	}
	return nil
}

// topicJSONImporter speichert topics.json unverändert als TopicList der Studie.
type topicJSONImporter struct{ *importEnv }

func (i *topicJSONImporter) Import(ctx context.Context, recs []*records.Record) error {
	raws := make([]string, 0, len(recs))
	languages := make([]string, 0, len(recs))
	for _, rec := range recs {
		raws = append(raws, rec.Raw)
		if language, ok := rec.Ref("language"); ok {
			languages = append(languages, language)
		}
	}

	db := i.db.WithContext(ctx)
	list := models.TopicList{
		StudyID:   i.study.ID,
		Topiclist: datatypes.JSON("[" + strings.Join(raws, ",") + "]"),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "study_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"topiclist"}),
	}).Create(&list).Error
	if err != nil {
		return errors.Wrap(err, "save topic list")
	}

	i.study.TopicLanguages = languages
	return db.Model(i.study).Update("topic_languages", datatypes.JSONSlice[string](languages)).Error
}

// conceptImporter legt Konzepte an und verknüpft sie mit ihrem Topic.
type conceptImporter struct{ *importEnv }

func (i *conceptImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	for _, rec := range recs {
		name, ok := nameOf(rec, "name", "concept", "concept_name")
		if !ok {
			return invalidRecord(rec, "concept without name")
		}
		id, err := i.resolver.Resolve(ctx, db, i.study, KindConcept, name)
		if err != nil {
			return err
		}
		var concept models.Concept
		if err := db.Take(&concept, id).Error; err != nil {
			return err
		}
		concept.Label = text(rec, "label")
		concept.LabelDE = text(rec, "label_de")
		concept.Description = text(rec, "description")
		if err := db.Save(&concept).Error; err != nil {
			return errors.Wrapf(err, "save concept %q", name)
		}

		topicName, ok := nameOf(rec, "topic", "topic_name")
		if !ok {
			continue
		}
		topicID, err := i.resolver.Resolve(ctx, db, i.study, KindTopic, topicName)
		if err != nil {
			return err
		}
		var topic models.Topic
		if err := db.Take(&topic, topicID).Error; err != nil {
			return err
		}
		if err := db.Model(&concept).Association("Topics").Append(&topic); err != nil {
			return errors.Wrapf(err, "link concept %q to topic %q", name, topicName)
		}
	}
	return nil
}

// vocabularyImporter importiert analysis_units, periods und conceptual_datasets.
type vocabularyImporter struct {
	*importEnv
	kind Kind
}

func (i *vocabularyImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	for _, rec := range recs {
		name, ok := nameOf(rec, "name", string(i.kind), string(i.kind)+"_name")
		if !ok {
			return invalidRecord(rec, "%s without name", i.kind)
		}
		id, err := i.resolver.Resolve(ctx, db, i.study, i.kind, name)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"label":       text(rec, "label"),
			"label_de":    text(rec, "label_de"),
			"description": text(rec, "description"),
		}
		var model any
		switch i.kind {
		case KindPeriod:
			model = &models.Period{}
			updates["definition"] = text(rec, "definition")
		case KindAnalysisUnit:
			model = &models.AnalysisUnit{}
		case KindConceptualDataset:
			model = &models.ConceptualDataset{}
		default:
			return errors.Errorf("no vocabulary import for %q", i.kind)
		}
		if err := db.Model(model).Where("id = ?", id).Updates(updates).Error; err != nil {
			return errors.Wrapf(err, "update %s %q", i.kind, name)
		}
	}
	return nil
}
