package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"ddionrails/config"
	"ddionrails/database"
	"ddionrails/models"
	"ddionrails/providers/filesystem"
)

// fixtureFiles ist eine vollständige Beispielstudie mit allen Eingabedateien.
func fixtureFiles() map[string]string {
	return map[string]string{
		"study.md": `---
label: Some Study
label_de: Eine Studie
repo: github.com/ddionrails/some-study
config:
  variables:
    label-table: true
---

Some study description.
`,
		"topics.csv": "name,label,label_de,description,parent\n" +
			"some-topic,some-topic,,,some-other-topic\n" +
			"some-other-topic,some-other-topic,,,\n",
		"topics.json": `[{"language": "en", "topics": [{"title": "Some topic", "name": "some-topic"}]},
{"language": "de", "topics": []}]`,
		"concepts.csv":            "name,label,label_de,description,topic\nsome-concept,Some concept,,,some-topic\n",
		"analysis_units.csv":      "name,label,description\nsome-analysis-unit,some-analysis-unit,some-analysis-unit\n",
		"periods.csv":             "name,label,definition\nsome-period,some-period,2018\n",
		"conceptual_datasets.csv": "name,label,description\nsome-conceptual-dataset,some-conceptual-dataset,some-conceptual-dataset\n",
		"datasets/some-dataset.json": `[
  {"name": "some-variable", "label": "Some variable", "scale": "cat",
   "statistics": {"names": ["Min", "Max"], "values": ["1", "2"]},
   "categories": {"values": [1, -1, 2], "labels": ["yes", "missing", "no"], "missings": [false, true, false]}},
  {"variable": "some-other-variable",
   "statistics": {"Min": "1", "Max": "2"},
   "categories": {"values": []}}
]`,
		"datasets.csv": "name,label,description,period,analysis_unit,conceptual_dataset,primary_key\n" +
			"some-dataset,some-dataset,some-dataset,some-period,some-analysis-unit,some-conceptual-dataset,pid  syear\n",
		"variables.csv": "dataset_name,variable_name,concept,description,image_url,type,statistics\n" +
			"some-dataset,some-variable,some-concept,Some description,https://variable-image.de,categorical,True\n",
		"variables_images.csv": "dataset,variable,url,url_de\nsome-dataset,some-variable,https://img.de/en.png,https://img.de/de.png\n",
		"instruments/some-instrument.json": `{
  "name": "some-instrument", "label": "Some instrument",
  "period": "some-period", "analysis_unit": "some-analysis-unit",
  "questions": {
    "some-question": {"label": "Some question", "instruction": "Answer", "items": [{"item": "1", "text": "?"}]}
  }
}`,
		"questions_variables.csv": "instrument,question,dataset,variable\nsome-instrument,some-question,some-dataset,some-variable\n",
		"concepts_questions.csv":  "concept,instrument,question\nsome-concept,some-instrument,some-question\n",
		"transformations.csv": "origin_study,origin_dataset,origin_variable,target_study,target_dataset,target_variable\n" +
			"some-study,some-dataset,some-variable,some-study,some-dataset,some-other-variable\n",
		"attachments.csv":  "type,study,url,url_text\nstudy,some-study,https://some-study.de,some-study\n",
		"publications.csv": "name,sub_type,title,author,year,doi,studies\nsome-publication,article,Some Publication,Doe,2018,some-doi,some-study\n",
	}
}

type fixture struct {
	ctx     context.Context
	dir     string
	db      *gorm.DB
	study   *models.Study
	manager *StudyImportManager
	logger  *zap.Logger
}

// newFixture legt eine SQLite-Datenbank und das Importverzeichnis an.
// overrides ersetzen Dateien; ein leerer Inhalt entfernt die Datei.
func newFixture(t *testing.T, overrides map[string]string) *fixture {
	t.Helper()
	dir := t.TempDir()
	files := fixtureFiles()
	for name, content := range overrides {
		if content == "" {
			delete(files, name)
			continue
		}
		files[name] = content
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	logger := zaptest.NewLogger(t)
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.Open(cfg, logger)
	require.NoError(t, err)

	ctx := context.Background()
	study, err := FindOrCreateStudy(ctx, db, "some-study")
	require.NoError(t, err)

	return &fixture{
		ctx:     ctx,
		dir:     dir,
		db:      db,
		study:   study,
		manager: NewStudyImportManager(study, filesystem.NewSource(dir), db, logger),
		logger:  logger,
	}
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) importEntities(t *testing.T, entities ...string) {
	t.Helper()
	for _, entity := range entities {
		require.NoError(t, f.manager.ImportSingleEntity(f.ctx, entity), entity)
	}
}

func (f *fixture) variable(t *testing.T, name string) models.Variable {
	t.Helper()
	var v models.Variable
	require.NoError(t, f.db.Where("name = ?", name).Take(&v).Error)
	return v
}
