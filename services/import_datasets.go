package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ddionrails/models"
	"ddionrails/records"
)

// datasetJSONImporter importiert Variablen samt Statistiken und Kategorien aus JSON.
// Jeder Datensatz muss sein Dataset unter "dataset" tragen; die Reihenfolge bestimmt sort_id.
type datasetJSONImporter struct{ *importEnv }

func (i *datasetJSONImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	datasets := map[string]*models.Dataset{}
	sortIDs := map[uuid.UUID]int{}

	for _, rec := range recs {
		datasetName, ok := nameOf(rec, "dataset", "dataset_name")
		if !ok {
			return invalidRecord(rec, "variable without dataset")
		}
		dataset, ok := datasets[datasetName]
		if !ok {
			dataset = &models.Dataset{}
			err := db.Where(models.Dataset{StudyID: i.study.ID, Name: datasetName}).FirstOrCreate(dataset).Error
			if err != nil {
				return errors.Wrapf(err, "get dataset %q", datasetName)
			}
			datasets[datasetName] = dataset
		}

		sortID := sortIDs[dataset.ID]
		sortIDs[dataset.ID] = sortID + 1
		if err := i.importVariable(ctx, db, dataset, rec, sortID); err != nil {
			return err
		}
	}
	return nil
}

func (i *datasetJSONImporter) importVariable(ctx context.Context, db *gorm.DB, dataset *models.Dataset, rec *records.Record, sortID int) error {
	name, ok := nameOf(rec, "name", "variable")
	if !ok {
		return invalidRecord(rec, "variable without name in dataset %q", dataset.Name)
	}
	var variable models.Variable
	if err := db.Where(models.Variable{DatasetID: dataset.ID, Name: name}).FirstOrCreate(&variable).Error; err != nil {
		return errors.Wrapf(err, "get variable %s/%s", dataset.Name, name)
	}

	variable.SortID = &sortID
	variable.Label = NormalizeText(rec.StringOr(name, "label"))
	variable.LabelDE = NormalizeText(rec.StringOr(name, "label_de"))
	variable.Scale = text(rec, "scale")
	if raw, ok := rec.Get("statistics"); ok {
		statistics, err := normalizeStatistics(raw)
		if err != nil {
			return invalidRecord(rec, "statistics of %s/%s: %v", dataset.Name, name, err)
		}
		variable.Statistics = statistics
	}
	if raw, ok := rec.Get("categories"); ok {
		categories, isMap := raw.(map[string]any)
		if !isMap {
			return invalidRecord(rec, "categories of %s/%s must be an object", dataset.Name, name)
		}
		// leere Kategorienlisten werden nicht gespeichert
		if values, _ := categories["values"].([]any); len(values) > 0 {
			variable.Categories = datatypes.JSONMap(categories)
		}
	}

	if err := db.Save(&variable).Error; err != nil {
		return errors.Wrapf(err, "save variable %s/%s", dataset.Name, name)
	}
	i.index(ctx, "variable", variable.ID.String(), variable)
	return nil
}

// normalizeStatistics bringt {"names": [...], "values": [...]} in die Form {name: value}.
// Eine direkte Zuordnung bleibt unverändert.
func normalizeStatistics(raw any) (datatypes.JSONMap, error) {
	statistics, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.Errorf("expected an object, got %T", raw)
	}
	rawNames, zipped := statistics["names"]
	if !zipped {
		return datatypes.JSONMap(statistics), nil
	}
	names, ok := rawNames.([]any)
	if !ok {
		return nil, errors.New("names must be a list")
	}
	values, _ := statistics["values"].([]any)
	out := make(datatypes.JSONMap, len(names))
	for idx, name := range names {
		if idx >= len(values) {
			break
		}
		out[records.Stringify(name)] = values[idx]
	}
	return out, nil
}

// datasetCSVImporter setzt die Verweise und Beschreibungen der Datensätze.
type datasetCSVImporter struct{ *importEnv }

func (i *datasetCSVImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	for _, rec := range recs {
		name, ok := nameOf(rec, "name", "dataset_name")
		if !ok {
			return invalidRecord(rec, "dataset without name")
		}
		var dataset models.Dataset
		if err := db.Where(models.Dataset{StudyID: i.study.ID, Name: name}).FirstOrCreate(&dataset).Error; err != nil {
			return errors.Wrapf(err, "get dataset %q", name)
		}

		links := []struct {
			kind Kind
			keys []string
			dest **uint
		}{
			{KindPeriod, []string{"period", "period_name"}, &dataset.PeriodID},
			{KindAnalysisUnit, []string{"analysis_unit", "analysis_unit_name"}, &dataset.AnalysisUnitID},
			{KindConceptualDataset, []string{"conceptual_dataset", "conceptual_dataset_name"}, &dataset.ConceptualDatasetID},
		}
		for _, link := range links {
			// fehlende Verweise landen beim Platzhalter "none"
			ref, _ := rec.Ref(link.keys...)
			id, err := i.resolver.Resolve(ctx, db, i.study, link.kind, ref)
			if err != nil {
				return err
			}
			*link.dest = &id
		}

		dataset.Label = text(rec, "label")
		dataset.LabelDE = text(rec, "label_de")
		dataset.Description = text(rec, "description")
		dataset.Folder = text(rec, "folder")
		dataset.PrimaryKey = strings.Fields(rec.StringOr("", "primary_key"))

		if err := db.Save(&dataset).Error; err != nil {
			return errors.Wrapf(err, "save dataset %q", name)
		}
	}
	return nil
}

// variableCSVImporter ergänzt bestehende Variablen um Beschreibungen, Konzept und Bild.
type variableCSVImporter struct{ *importEnv }

func (i *variableCSVImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	for _, rec := range recs {
		if err := i.importVariable(ctx, db, rec); err != nil {
			return errors.Wrapf(err, "failed to import variable %q from dataset %q",
				rec.StringOr("", "name", "variable_name"), rec.StringOr("", "dataset", "dataset_name"))
		}
	}
	return nil
}

func (i *variableCSVImporter) importVariable(ctx context.Context, db *gorm.DB, rec *records.Record) error {
	datasetName, ok := nameOf(rec, "dataset", "dataset_name")
	if !ok {
		return invalidRecord(rec, "variable without dataset")
	}
	name, ok := nameOf(rec, "name", "variable_name")
	if !ok {
		return invalidRecord(rec, "variable without name")
	}
	dataset, err := findDataset(ctx, db, i.study.ID, datasetName)
	if err != nil {
		return err
	}

	var variable models.Variable
	if err := db.Where(models.Variable{DatasetID: dataset.ID, Name: name}).FirstOrCreate(&variable).Error; err != nil {
		return err
	}
	if conceptName, ok := nameOf(rec, "concept", "concept_name"); ok {
		concept, err := findConcept(ctx, db, i.study.ID, conceptName)
		if err != nil {
			return err
		}
		variable.ConceptID = &concept.ID
	}
	variable.Description = text(rec, "description")
	variable.DescriptionDE = text(rec, "description_de")
	variable.DescriptionLong = text(rec, "description_long")
	variable.ImageURL = text(rec, "image_url")
	variable.StatisticsType = text(rec, "type")
	variable.StatisticsFlag = rec.StringOr("False", "statistics") == "True"
	if variable.Label == "" {
		variable.Label = text(rec, "label")
	}
	if variable.LabelDE == "" {
		variable.LabelDE = text(rec, "label_de")
	}

	if err := db.Save(&variable).Error; err != nil {
		return err
	}
	i.index(ctx, "variable", variable.ID.String(), variable)
	return nil
}

type imageUpdate struct {
	id     uuid.UUID
	images datatypes.JSONMap
}

// variableImagesImporter setzt die Bild-URLs der Variablen, gepuffert in Blöcken von batchSize.
type variableImagesImporter struct {
	*importEnv
	batchSize int
	batches   int
}

func (i *variableImagesImporter) Import(ctx context.Context, recs []*records.Record) error {
	db := i.db.WithContext(ctx)
	buffer := make([]imageUpdate, 0, i.batchSize)
	for _, rec := range recs {
		dataset, _ := rec.Ref("dataset", "dataset_name")
		variable, _ := rec.Ref("variable", "variable_name")
		id, err := findVariableID(ctx, db, i.study.ID, dataset, variable)
		if err != nil {
			return err
		}
		buffer = append(buffer, imageUpdate{id: id, images: datatypes.JSONMap{
			"de": rec.StringOr("", "url_de"),
			"en": rec.StringOr("", "url"),
		}})
		if len(buffer) >= i.batchSize {
			if err := i.flush(db, buffer); err != nil {
				return err
			}
			buffer = buffer[:0]
		}
	}
	if len(buffer) > 0 {
		if err := i.flush(db, buffer); err != nil {
			return err
		}
	}
	i.logger.Info("Variablenbilder aktualisiert", zap.Int("variables", len(recs)), zap.Int("batches", i.batches))
	return nil
}

// flush schreibt einen Block in einer Transaktion; UpdateColumn umgeht die Hooks,
// weil nur die Bilder geändert werden.
func (i *variableImagesImporter) flush(db *gorm.DB, buffer []imageUpdate) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, update := range buffer {
			err := tx.Model(&models.Variable{}).Where("id = ?", update.id).UpdateColumn("images", update.images).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "update variable images")
	}
	i.batches++
	return nil
}

// transformationImporter importiert die Kanten zwischen Variablen. Die ganze Datei
// läuft in einer Transaktion: scheitert eine Zeile, bleibt keine Kante übrig.
type transformationImporter struct {
	*importEnv
	lookup *VariableLookup
}

func (i *transformationImporter) Import(ctx context.Context, recs []*records.Record) error {
	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range recs {
			originID, err := i.variable(ctx, tx, rec, RoleOrigin, "origin")
			if err != nil {
				return err
			}
			targetID, err := i.variable(ctx, tx, rec, RoleTarget, "target")
			if err != nil {
				return err
			}
			edge := models.Transformation{OriginID: originID, TargetID: targetID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
				return errors.Wrap(err, "save transformation")
			}
		}
		return nil
	})
}

func (i *transformationImporter) variable(ctx context.Context, tx *gorm.DB, rec *records.Record, role Role, prefix string) (uuid.UUID, error) {
	study, ok := rec.Ref(prefix+"_study", prefix+"_study_name")
	if !ok {
		study = i.study.Name
	}
	dataset, _ := rec.Ref(prefix+"_dataset", prefix+"_dataset_name")
	name, _ := rec.Ref(prefix+"_variable", prefix+"_variable_name")
	return i.lookup.Lookup(ctx, tx, role, study, dataset, name)
}
