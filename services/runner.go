package services

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ddionrails/config"
	"ddionrails/providers"
	"ddionrails/providers/filesystem"
	"ddionrails/providers/s3source"
	"ddionrails/storage"
)

// ErrImportRunning: für die Studie läuft bereits ein Import.
var ErrImportRunning = errors.New("import already running")

// ImportRunner startet Importe für Studien nach Namen, mit der Quelle aus der Konfiguration.
// Pro Studie läuft höchstens ein Import gleichzeitig.
type ImportRunner struct {
	Config  *config.Config
	DB      *gorm.DB
	Logger  *zap.Logger
	Indexer Indexer

	mu      sync.Mutex
	running map[string]bool
	bucket  *storage.Bucket
}

func NewImportRunner(cfg *config.Config, db *gorm.DB, logger *zap.Logger, indexer Indexer) *ImportRunner {
	return &ImportRunner{Config: cfg, DB: db, Logger: logger, Indexer: indexer, running: map[string]bool{}}
}

// Source liefert die Importquelle der Studie.
func (r *ImportRunner) Source(ctx context.Context, study string) (providers.Source, error) {
	switch r.Config.ImportSource {
	case "s3":
		bucket, err := r.s3Bucket(ctx)
		if err != nil {
			return nil, err
		}
		return s3source.NewSource(bucket, study, r.Config.ImportSubDirectory), nil
	default:
		return filesystem.NewSource(r.Config.StudyImportPath(study)), nil
	}
}

func (r *ImportRunner) s3Bucket(ctx context.Context) (*storage.Bucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bucket != nil {
		return r.bucket, nil
	}
	client, err := storage.NewS3Client(ctx, r.Config)
	if err != nil {
		return nil, errors.Wrap(err, "create s3 client")
	}
	r.bucket = storage.NewBucket(client, r.Config.S3Bucket)
	return r.bucket, nil
}

// Manager baut den Import-Manager für die Studie und legt sie bei Bedarf an.
func (r *ImportRunner) Manager(ctx context.Context, study string) (*StudyImportManager, error) {
	name, err := StudyName(study)
	if err != nil {
		return nil, err
	}
	source, err := r.Source(ctx, name)
	if err != nil {
		return nil, err
	}
	s, err := FindOrCreateStudy(ctx, r.DB, name)
	if err != nil {
		return nil, err
	}
	m := NewStudyImportManager(s, source, r.DB, r.Logger)
	m.Indexer = r.Indexer
	m.ImageBatchSize = r.Config.ImageBatchSize
	m.CacheSize = r.Config.TransformationCacheSize
	if r.Config.ImportSource != "s3" {
		commit, err := filesystem.HeadCommit(filepath.Join(r.Config.ImportRepoPath, name))
		if err != nil {
			r.Logger.Warn("Commit nicht lesbar", zap.String("study", name), zap.Error(err))
		}
		m.WithCommit(commit)
	}
	return m, nil
}

// ImportAll importiert alle Entitäten der Studie.
func (r *ImportRunner) ImportAll(ctx context.Context, study string) (*Report, error) {
	release, err := r.acquire(study)
	if err != nil {
		return nil, err
	}
	defer release()
	m, err := r.Manager(ctx, study)
	if err != nil {
		return nil, err
	}
	return m.ImportAllEntities(ctx)
}

// ImportEntity importiert genau eine Entitätsart der Studie.
func (r *ImportRunner) ImportEntity(ctx context.Context, study, entity string) error {
	if _, ok := findStage(entity); !ok {
		return errors.Wrapf(ErrUnknownEntity, "%q", entity)
	}
	release, err := r.acquire(study)
	if err != nil {
		return err
	}
	defer release()
	m, err := r.Manager(ctx, study)
	if err != nil {
		return err
	}
	return m.ImportSingleEntity(ctx, entity)
}

func (r *ImportRunner) acquire(study string) (func(), error) {
	name, err := StudyName(study)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[name] {
		return nil, errors.Wrapf(ErrImportRunning, "study %q", name)
	}
	r.running[name] = true
	return func() {
		r.mu.Lock()
		delete(r.running, name)
		r.mu.Unlock()
	}, nil
}
