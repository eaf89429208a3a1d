package services

import (
	"context"
	stderrors "errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ddionrails/models"
	"ddionrails/providers"
	"ddionrails/records"
)

const (
	defaultImageBatchSize = 1000
	defaultCacheSize      = 100
)

// StudyImportManager importiert die Metadaten-Dateien einer Studie in fester Reihenfolge.
type StudyImportManager struct {
	Study   *models.Study
	Source  providers.Source
	DB      *gorm.DB
	Logger  *zap.Logger
	Indexer Indexer

	ImageBatchSize int
	CacheSize      int

	commit string
}

// NewStudyImportManager erstellt einen Manager mit Standardwerten.
func NewStudyImportManager(study *models.Study, source providers.Source, db *gorm.DB, logger *zap.Logger) *StudyImportManager {
	return &StudyImportManager{
		Study:          study,
		Source:         source,
		DB:             db,
		Logger:         logger,
		Indexer:        NopIndexer{},
		ImageBatchSize: defaultImageBatchSize,
		CacheSize:      defaultCacheSize,
	}
}

// WithCommit merkt sich den Commit des Metadaten-Repositories; er wird nach dem Import der Studie gespeichert.
func (m *StudyImportManager) WithCommit(commit string) *StudyImportManager {
	m.commit = commit
	return m
}

// StudyName normalisiert einen Studiennamen. Der Name wird Teil des Importpfads,
// darf also weder leer noch "." oder ".." sein und keine Pfadtrenner enthalten.
func StudyName(name string) (string, error) {
	name = NormalizeName(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || !filepath.IsLocal(name) {
		return "", errors.Wrapf(ErrInvalidRecord, "invalid study name %q", name)
	}
	return name, nil
}

// FindOrCreateStudy lädt die Studie mit dem Namen oder legt sie an.
func FindOrCreateStudy(ctx context.Context, db *gorm.DB, name string) (*models.Study, error) {
	name, err := StudyName(name)
	if err != nil {
		return nil, err
	}
	var study models.Study
	if err := db.WithContext(ctx).Where(models.Study{Name: name}).FirstOrCreate(&study).Error; err != nil {
		return nil, errors.Wrapf(err, "get study %q", name)
	}
	return &study, nil
}

type readFunc func(name string, r io.Reader) ([]*records.Record, error)

type stage struct {
	entity   string
	optional bool
	inputs   func(ctx context.Context, src providers.Source) ([]string, error)
	read     readFunc
	importer func(m *StudyImportManager, env *importEnv) (Importer, error)
}

// stages in Abhängigkeitsreihenfolge; spätere Stufen verlassen sich darauf.
var stages = []stage{
	{entity: "study", inputs: file("study.md"), read: readStudy,
		importer: simple(func(env *importEnv) Importer { return &studyImporter{env} })},
	{entity: "topics.csv", inputs: file("topics.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &topicCSVImporter{env} })},
	{entity: "topics.json", inputs: file("topics.json"), read: readJSON,
		importer: simple(func(env *importEnv) Importer { return &topicJSONImporter{env} })},
	{entity: "concepts", inputs: file("concepts.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &conceptImporter{env} })},
	{entity: "analysis_units", inputs: file("analysis_units.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &vocabularyImporter{env, KindAnalysisUnit} })},
	{entity: "periods", inputs: file("periods.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &vocabularyImporter{env, KindPeriod} })},
	{entity: "conceptual_datasets", inputs: file("conceptual_datasets.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &vocabularyImporter{env, KindConceptualDataset} })},
	{entity: "datasets.json", inputs: dirOrFile("datasets", ".json", "datasets.json"), read: readDatasetJSON,
		importer: simple(func(env *importEnv) Importer { return &datasetJSONImporter{env} })},
	{entity: "datasets.csv", inputs: file("datasets.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &datasetCSVImporter{env} })},
	{entity: "variables", inputs: file("variables.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &variableCSVImporter{env} })},
	{entity: "variables_images", optional: true, inputs: file("variables_images.csv"), read: readCSV,
		importer: func(m *StudyImportManager, env *importEnv) (Importer, error) {
			return &variableImagesImporter{importEnv: env, batchSize: m.imageBatchSize()}, nil
		}},
	{entity: "instruments", inputs: dirOrFile("instruments", ".json", ""), read: readInstrument,
		importer: simple(func(env *importEnv) Importer { return &instrumentImporter{env} })},
	{entity: "questions_variables", inputs: file("questions_variables.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &questionVariableImporter{env} })},
	{entity: "concepts_questions", inputs: file("concepts_questions.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &conceptQuestionImporter{env} })},
	{entity: "transformations", inputs: file("transformations.csv"), read: readCSV,
		importer: func(m *StudyImportManager, env *importEnv) (Importer, error) {
			lookup, err := NewVariableLookup(m.cacheSize())
			if err != nil {
				return nil, err
			}
			return &transformationImporter{importEnv: env, lookup: lookup}, nil
		}},
	{entity: "attachments", inputs: file("attachments.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &attachmentImporter{env} })},
	{entity: "publications", inputs: file("publications.csv"), read: readCSV,
		importer: simple(func(env *importEnv) Importer { return &publicationImporter{env} })},
}

// Stages gibt die Entitätsarten in Importreihenfolge zurück.
func Stages() []string {
	out := make([]string, 0, len(stages))
	for _, st := range stages {
		out = append(out, st.entity)
	}
	return out
}

func findStage(entity string) (stage, bool) {
	for _, st := range stages {
		if st.entity == entity {
			return st, true
		}
	}
	return stage{}, false
}

// StageResult beschreibt den Lauf einer Stufe.
type StageResult struct {
	Entity   string        `json:"entity"`
	Files    []string      `json:"files,omitempty"`
	Records  int           `json:"records"`
	Skipped  bool          `json:"skipped,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report fasst einen Gesamtimport zusammen.
type Report struct {
	Study  string        `json:"study"`
	Stages []StageResult `json:"stages"`
}

// Failed gibt die Stufen mit Fehler zurück.
func (r *Report) Failed() []string {
	var out []string
	for _, st := range r.Stages {
		if st.Error != "" {
			out = append(out, st.Entity)
		}
	}
	return out
}

// Skipped gibt die Stufen ohne Eingabedatei zurück.
func (r *Report) Skipped() []string {
	var out []string
	for _, st := range r.Stages {
		if st.Skipped {
			out = append(out, st.Entity)
		}
	}
	return out
}

// ImportSingleEntity führt genau eine Stufe aus. Fehlt die Eingabe einer
// nicht optionalen Stufe, ist das ein Fehler (ErrMissingInput).
func (m *StudyImportManager) ImportSingleEntity(ctx context.Context, entity string) error {
	st, ok := findStage(entity)
	if !ok {
		return errors.Wrapf(ErrUnknownEntity, "%q", entity)
	}
	_, err := m.run(ctx, st)
	return err
}

// ImportEntityFile führt eine Stufe mit einer abweichenden Eingabedatei der Quelle aus.
func (m *StudyImportManager) ImportEntityFile(ctx context.Context, entity, name string) error {
	st, ok := findStage(entity)
	if !ok {
		return errors.Wrapf(ErrUnknownEntity, "%q", entity)
	}
	st.inputs = file(name)
	st.optional = false
	_, err := m.run(ctx, st)
	return err
}

// ImportAllEntities führt alle Stufen der Reihe nach aus. Fehlende Eingaben werden
// übersprungen; eine fehlgeschlagene Stufe hält den Lauf nicht an. Bereits
// importierte Stufen werden bei späteren Fehlern nicht zurückgerollt.
func (m *StudyImportManager) ImportAllEntities(ctx context.Context) (*Report, error) {
	report := &Report{Study: m.Study.Name}
	var errs []error
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := m.run(ctx, st)
		switch {
		case errors.Is(err, ErrMissingInput):
			result.Skipped = true
		case err != nil:
			result.Error = err.Error()
			errs = append(errs, &StageError{Entity: st.entity, Err: err})
		}
		report.Stages = append(report.Stages, result)
	}
	m.Logger.Info("Import abgeschlossen",
		zap.String("study", m.Study.Name),
		zap.Strings("failed", report.Failed()),
		zap.Strings("skipped", report.Skipped()))
	return report, stderrors.Join(errs...)
}

func (m *StudyImportManager) run(ctx context.Context, st stage) (result StageResult, err error) {
	log := m.Logger.With(zap.String("study", m.Study.Name), zap.String("entity", st.entity))
	result = StageResult{Entity: st.entity}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		importStageDuration.WithLabelValues(st.entity).Observe(result.Duration.Seconds())
	}()

	files, err := st.inputs(ctx, m.Source)
	if err != nil {
		importFailures.WithLabelValues(st.entity).Inc()
		return result, errors.Wrapf(err, "list input of %s", st.entity)
	}
	if len(files) == 0 {
		if st.optional {
			log.Info("Optionale Eingabe fehlt, Stufe übersprungen")
			result.Skipped = true
			return result, nil
		}
		log.Info("Eingabe fehlt")
		return result, errors.Wrapf(ErrMissingInput, "%s", st.entity)
	}
	result.Files = files

	env := &importEnv{
		study:    m.Study,
		db:       m.DB,
		logger:   log,
		resolver: NewResolver(log),
		indexer:  m.indexer(),
	}
	imp, err := st.importer(m, env)
	if err != nil {
		return result, err
	}

	log.Info("Starte Import-Stufe", zap.Strings("files", files))
	for _, name := range files {
		recs, err := m.read(ctx, st, name)
		if err != nil {
			importFailures.WithLabelValues(st.entity).Inc()
			return result, errors.Wrapf(err, "read %s", name)
		}
		importRecords.WithLabelValues(st.entity).Add(float64(len(recs)))
		if err := imp.Import(ctx, recs); err != nil {
			importFailures.WithLabelValues(st.entity).Inc()
			log.Error("Import-Stufe fehlgeschlagen", zap.String("file", name), zap.Error(err))
			return result, errors.Wrapf(err, "%s", name)
		}
		result.Records += len(recs)
	}

	if st.entity == "study" && m.commit != "" {
		m.Study.CurrentCommit = m.commit
		if err := m.DB.WithContext(ctx).Model(m.Study).Update("current_commit", m.commit).Error; err != nil {
			return result, errors.Wrap(err, "save current commit")
		}
	}
	log.Info("Import-Stufe abgeschlossen", zap.Int("records", result.Records), zap.Duration("duration", time.Since(start)))
	return result, nil
}

func (m *StudyImportManager) read(ctx context.Context, st stage, name string) ([]*records.Record, error) {
	f, err := m.Source.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return st.read(name, f)
}

func (m *StudyImportManager) indexer() Indexer {
	if m.Indexer == nil {
		return NopIndexer{}
	}
	return m.Indexer
}

func (m *StudyImportManager) imageBatchSize() int {
	if m.ImageBatchSize <= 0 {
		return defaultImageBatchSize
	}
	return m.ImageBatchSize
}

func (m *StudyImportManager) cacheSize() int {
	if m.CacheSize <= 0 {
		return defaultCacheSize
	}
	return m.CacheSize
}

func simple(build func(env *importEnv) Importer) func(*StudyImportManager, *importEnv) (Importer, error) {
	return func(_ *StudyImportManager, env *importEnv) (Importer, error) {
		return build(env), nil
	}
}

// file liefert die Datei, wenn sie existiert.
func file(name string) func(context.Context, providers.Source) ([]string, error) {
	return func(ctx context.Context, src providers.Source) ([]string, error) {
		ok, err := src.Exists(ctx, name)
		if err != nil || !ok {
			return nil, err
		}
		return []string{name}, nil
	}
}

// dirOrFile liefert die Dateien des Verzeichnisses, ersatzweise die einzelne Datei.
func dirOrFile(dir, ext, fallback string) func(context.Context, providers.Source) ([]string, error) {
	return func(ctx context.Context, src providers.Source) ([]string, error) {
		names, err := src.List(ctx, dir, ext)
		if err != nil || len(names) > 0 || fallback == "" {
			return names, err
		}
		return file(fallback)(ctx, src)
	}
}

func readCSV(_ string, r io.Reader) ([]*records.Record, error) {
	return records.ReadCSV(r)
}

func readJSON(_ string, r io.Reader) ([]*records.Record, error) {
	return records.ReadJSON(r)
}

func readStudy(_ string, r io.Reader) ([]*records.Record, error) {
	rec, err := records.ReadFrontMatter(r, "description")
	if err != nil {
		return nil, err
	}
	return []*records.Record{rec}, nil
}

// readInstrument liest eine Instrument-Datei; ohne Namensfeld gilt der Dateiname.
func readInstrument(name string, r io.Reader) ([]*records.Record, error) {
	root, err := records.Parse(r)
	if err != nil {
		return nil, err
	}
	rec, err := records.FromObject(root)
	if err != nil {
		return nil, err
	}
	if _, ok := rec.Ref("name", "instrument"); !ok {
		rec.Set("name", stem(name))
	}
	return []*records.Record{rec}, nil
}

// readDatasetJSON liest datasets/<name>.json (Variablenliste eines Datensatzes)
// oder datasets.json (Zuordnung Datensatz -> Variablenliste, oder Liste mit Feld "dataset").
func readDatasetJSON(name string, r io.Reader) ([]*records.Record, error) {
	root, err := records.Parse(r)
	if err != nil {
		return nil, err
	}
	if path.Dir(name) == "datasets" {
		recs, err := records.FromJSON(root)
		if err != nil {
			return nil, err
		}
		setDataset(recs, stem(name))
		return recs, nil
	}

	if !root.IsObject() || !allArrays(root) {
		return records.FromJSON(root)
	}
	var (
		out     []*records.Record
		elemErr error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		recs, err := records.FromJSON(value)
		if err != nil {
			elemErr = errors.Wrapf(err, "dataset %q", key.String())
			return false
		}
		setDataset(recs, key.String())
		out = append(out, recs...)
		return true
	})
	return out, elemErr
}

func allArrays(root gjson.Result) bool {
	arrays := true
	root.ForEach(func(_, value gjson.Result) bool {
		arrays = value.IsArray()
		return arrays
	})
	return arrays
}

func setDataset(recs []*records.Record, dataset string) {
	for _, rec := range recs {
		if _, ok := rec.Ref("dataset", "dataset_name"); !ok {
			rec.Set("dataset", dataset)
		}
	}
}

func stem(name string) string {
	return strings.TrimSuffix(path.Base(name), path.Ext(name))
}
