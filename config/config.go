package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// Datenbank: "postgres" für den Betrieb, "sqlite" für lokale Läufe
	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"ddionrails"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"ddionrails"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"ddionrails.db"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`
	LogMode      string `envconfig:"LOG_MODE" default:"production"`

	// Import-Quellen
	ImportSource       string `envconfig:"IMPORT_SOURCE" default:"filesystem"` // filesystem, s3
	ImportRepoPath     string `envconfig:"IMPORT_REPO_PATH" default:"import"`
	ImportSubDirectory string `envconfig:"IMPORT_SUB_DIRECTORY" default:"ddionrails"`
	ImportStudies      string `envconfig:"IMPORT_STUDIES"`
	ImportCronSchedule string `envconfig:"IMPORT_CRON_SCHEDULE" default:"0 3 * * *"`

	ImageBatchSize          int `envconfig:"IMAGE_BATCH_SIZE" default:"1000"`
	TransformationCacheSize int `envconfig:"TRANSFORMATION_CACHE_SIZE" default:"100"`

	GitProtocol string `envconfig:"GIT_PROTOCOL" default:"https"`

	// S3-kompatibler Speicher für Import-Dateien (nur bei IMPORT_SOURCE=s3)
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3Bucket string `envconfig:"S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// StudyImportPath liefert das Importverzeichnis einer Studie relativ zur Import-Wurzel.
func (c *Config) StudyImportPath(study string) string {
	return filepath.Join(c.ImportRepoPath, study, c.ImportSubDirectory)
}

// Studies gibt die Liste der regelmäßig zu importierenden Studien zurück.
func (c *Config) Studies() []string {
	var out []string
	for _, name := range strings.Split(c.ImportStudies, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Validate prüft Kombinationen, die envconfig allein nicht abdecken kann.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.ImportSource {
	case "filesystem":
	case "s3":
		if c.S3Bucket == "" || c.S3URL == "" {
			return fmt.Errorf("IMPORT_SOURCE=s3 requires S3_BUCKET and S3_URL")
		}
	default:
		return fmt.Errorf("unsupported IMPORT_SOURCE %q", c.ImportSource)
	}
	if c.ImageBatchSize <= 0 {
		return fmt.Errorf("IMAGE_BATCH_SIZE must be positive")
	}
	if c.TransformationCacheSize <= 0 {
		return fmt.Errorf("TRANSFORMATION_CACHE_SIZE must be positive")
	}
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, c.Validate()
}
