package services

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddionrails/models"
)

func TestStagesOrder(t *testing.T) {
	assert.Equal(t, []string{
		"study", "topics.csv", "topics.json", "concepts", "analysis_units", "periods",
		"conceptual_datasets", "datasets.json", "datasets.csv", "variables", "variables_images",
		"instruments", "questions_variables", "concepts_questions", "transformations",
		"attachments", "publications",
	}, Stages())
}

func TestImportAllEntities(t *testing.T) {
	f := newFixture(t, nil)
	f.manager.WithCommit("abc123")

	report, err := f.manager.ImportAllEntities(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Failed())
	assert.Empty(t, report.Skipped())
	assert.Len(t, report.Stages, len(Stages()))

	counts := map[string]struct {
		model any
		want  int64
	}{
		"study":              {&models.Study{}, 1},
		"concept":            {&models.Concept{}, 1},
		"conceptual dataset": {&models.ConceptualDataset{}, 1},
		"period":             {&models.Period{}, 1},
		"analysis unit":      {&models.AnalysisUnit{}, 1},
		"dataset":            {&models.Dataset{}, 1},
		"variable":           {&models.Variable{}, 2},
		"instrument":         {&models.Instrument{}, 1},
		"question":           {&models.Question{}, 1},
		"transformation":     {&models.Transformation{}, 1},
		"question variable":  {&models.QuestionVariable{}, 1},
		"concept question":   {&models.ConceptQuestion{}, 1},
		"publication":        {&models.Publication{}, 1},
		"attachment":         {&models.Attachment{}, 1},
		"topic":              {&models.Topic{}, 2},
		"topic list":         {&models.TopicList{}, 1},
	}
	for name, c := range counts {
		assert.Equal(t, c.want, f.count(t, c.model), name)
	}

	var study models.Study
	require.NoError(t, f.db.First(&study).Error)
	assert.Equal(t, "Some Study", study.Label)
	assert.Equal(t, "Some study description.", study.Description)
	assert.Equal(t, "abc123", study.CurrentCommit)
	assert.Equal(t, map[string]any{"label-table": true}, study.Config["variables"])
	assert.Equal(t, []string{"en", "de"}, []string(study.TopicLanguages))

	// Periode wird aus dem Datensatz in die Variablen gespiegelt
	var period models.Period
	require.NoError(t, f.db.Where("name = ?", "some-period").Take(&period).Error)
	for _, name := range []string{"some-variable", "some-other-variable"} {
		v := f.variable(t, name)
		require.NotNil(t, v.PeriodID, name)
		assert.Equal(t, period.ID, *v.PeriodID, name)
	}
}

func TestImportAllIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.manager.ImportAllEntities(f.ctx)
	require.NoError(t, err)
	var first []models.Variable
	require.NoError(t, f.db.Order("name").Find(&first).Error)

	_, err = f.manager.ImportAllEntities(f.ctx)
	require.NoError(t, err)
	var second []models.Variable
	require.NoError(t, f.db.Order("name").Find(&second).Error)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	assert.Equal(t, int64(1), f.count(t, &models.Transformation{}))
	assert.Equal(t, int64(1), f.count(t, &models.Attachment{}))
}

func TestImportSingleEntityErrors(t *testing.T) {
	f := newFixture(t, map[string]string{"periods.csv": "", "variables_images.csv": ""})

	err := f.manager.ImportSingleEntity(f.ctx, "baskets")
	assert.ErrorIs(t, err, ErrUnknownEntity)

	err = f.manager.ImportSingleEntity(f.ctx, "periods")
	assert.ErrorIs(t, err, ErrMissingInput)

	assert.NoError(t, f.manager.ImportSingleEntity(f.ctx, "variables_images"))
}

func TestImportAllSkipsMissingInputs(t *testing.T) {
	f := newFixture(t, map[string]string{"topics.json": "", "attachments.csv": ""})

	report, err := f.manager.ImportAllEntities(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"topics.json", "attachments"}, report.Skipped())
	assert.Equal(t, int64(0), f.count(t, &models.TopicList{}))
	assert.Equal(t, int64(1), f.count(t, &models.Publication{}))
}

func TestImportAllContinuesAfterFailingStage(t *testing.T) {
	f := newFixture(t, map[string]string{
		"variables.csv": "dataset,name,concept\nsome-dataset,some-variable,unknown-concept\n",
	})

	report, err := f.manager.ImportAllEntities(f.ctx)
	require.Error(t, err)
	assert.Equal(t, []string{"variables"}, report.Failed())
	assert.ErrorIs(t, err, ErrConceptNotFound)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "variables", stageErr.Entity)

	// spätere Stufen laufen trotzdem
	assert.Equal(t, int64(1), f.count(t, &models.Publication{}))
	assert.Equal(t, int64(1), f.count(t, &models.Transformation{}))
}

func TestStudyImport(t *testing.T) {
	f := newFixture(t, nil)
	f.importEntities(t, "study")

	assert.Equal(t, int64(1), f.count(t, &models.Study{}))
	var study models.Study
	require.NoError(t, f.db.First(&study).Error)
	assert.Equal(t, "Some Study", study.Label)
	assert.Equal(t, "Eine Studie", study.LabelDE)
	assert.Equal(t, "github.com/ddionrails/some-study", study.Repo)
	assert.Equal(t, map[string]any{"label-table": true}, study.Config["variables"])
}

func TestTopicImports(t *testing.T) {
	f := newFixture(t, nil)
	f.importEntities(t, "topics.csv", "topics.json")

	var topic, parent models.Topic
	require.NoError(t, f.db.Where("name = ?", "some-topic").Take(&topic).Error)
	require.NoError(t, f.db.Where("name = ?", "some-other-topic").Take(&parent).Error)
	require.NotNil(t, topic.ParentID)
	assert.Equal(t, parent.ID, *topic.ParentID)
	assert.Equal(t, "some-other-topic", parent.Label)

	var list models.TopicList
	require.NoError(t, f.db.Where("study_id = ?", f.study.ID).Take(&list).Error)
	english := list.Topics("en")
	require.Len(t, english, 1)
	assert.Equal(t, "some-topic", english[0].(map[string]any)["name"])
	assert.Empty(t, list.Topics("de"))
	assert.Nil(t, list.Topics("fr"))
}

func TestConceptImportLinksTopic(t *testing.T) {
	f := newFixture(t, nil)
	f.importEntities(t, "concepts")

	var concept models.Concept
	require.NoError(t, f.db.Preload("Topics").Take(&concept).Error)
	assert.Equal(t, "some-concept", concept.Name)
	assert.Equal(t, "Some concept", concept.Label)
	require.Len(t, concept.Topics, 1)
	assert.Equal(t, "some-topic", concept.Topics[0].Name)
}

func TestVocabularyImports(t *testing.T) {
	f := newFixture(t, nil)
	f.importEntities(t, "analysis_units", "periods", "conceptual_datasets")

	var period models.Period
	require.NoError(t, f.db.Take(&period).Error)
	assert.Equal(t, "some-period", period.Name)
	assert.Equal(t, "2018", period.Definition)
	assert.Equal(t, f.study.ID, period.StudyID)

	var unit models.AnalysisUnit
	require.NoError(t, f.db.Take(&unit).Error)
	assert.Equal(t, "some-analysis-unit", unit.Description)
	assert.Equal(t, int64(1), f.count(t, &models.ConceptualDataset{}))
}

func TestInstrumentImport(t *testing.T) {
	f := newFixture(t, nil)
	f.importEntities(t, "periods", "instruments")

	assert.Equal(t, int64(1), f.count(t, &models.Instrument{}))
	assert.Equal(t, int64(1), f.count(t, &models.Period{}))

	var question models.Question
	require.NoError(t, f.db.Preload("Instrument").Take(&question).Error)
	assert.Equal(t, "some-question", question.Name)
	assert.Equal(t, "some-instrument", question.Instrument.Name)
	assert.Equal(t, "Answer", question.Instruction)
	require.NotNil(t, question.SortID)
	assert.Equal(t, 0, *question.SortID)
	assert.JSONEq(t, `[{"item": "1", "text": "?"}]`, string(question.Items))
}

func TestJoinTableImports(t *testing.T) {
	f := newFixture(t, nil)
	f.importEntities(t, "concepts", "datasets.json", "instruments", "questions_variables", "concepts_questions")

	var link models.QuestionVariable
	require.NoError(t, f.db.Take(&link).Error)
	assert.Equal(t, f.variable(t, "some-variable").ID, link.VariableID)

	// erneuter Import legt keine doppelten Verknüpfungen an
	f.importEntities(t, "questions_variables", "concepts_questions")
	assert.Equal(t, int64(1), f.count(t, &models.QuestionVariable{}))
	assert.Equal(t, int64(1), f.count(t, &models.ConceptQuestion{}))
}

func TestAttachmentAndPublicationImport(t *testing.T) {
	f := newFixture(t, nil)
	f.importEntities(t, "attachments", "publications")

	var attachment models.Attachment
	require.NoError(t, f.db.Take(&attachment).Error)
	assert.Equal(t, f.study.ID, attachment.ContextStudyID)
	require.NotNil(t, attachment.StudyID)
	assert.Equal(t, f.study.ID, *attachment.StudyID)
	assert.Equal(t, "https://some-study.de", attachment.URL)
	assert.Equal(t, "some-study", attachment.URLText)

	var publication models.Publication
	require.NoError(t, f.db.Take(&publication).Error)
	assert.Equal(t, "Some Publication", publication.Title)
	assert.Equal(t, "some-doi", publication.DOI)
	assert.Equal(t, "2018", publication.Year)
	assert.Equal(t, f.study.ID, publication.StudyID)
}

func TestAttachmentUnknownType(t *testing.T) {
	f := newFixture(t, map[string]string{"attachments.csv": "type,url\nbasket,https://x.de\n"})
	err := f.manager.ImportSingleEntity(f.ctx, "attachments")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
