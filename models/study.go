package models

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Study repräsentiert eine Studie; sie besitzt Datensätze, Instrumente, Perioden und Konzepte.
type Study struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name          string `json:"name" gorm:"size:255;uniqueIndex;not null"`
	Label         string `json:"label" gorm:"size:255"`
	LabelDE       string `json:"label_de" gorm:"column:label_de;size:255"`
	Description   string `json:"description" gorm:"type:text"`
	Repo          string `json:"repo" gorm:"size:255"`
	CurrentCommit string `json:"current_commit" gorm:"size:255"`

	Config         datatypes.JSONMap           `json:"config"`
	TopicLanguages datatypes.JSONSlice[string] `json:"topic_languages"`
}

// TableName gibt explizit den Tabellennamen an.
func (Study) TableName() string {
	return "studies"
}

func (s *Study) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = StudyID(s.Name)
	}
	return nil
}

func (s Study) String() string {
	return "/" + s.Name
}

// RepoURL baut die Git-URL des Metadaten-Repositories für das gegebene Protokoll.
func (s Study) RepoURL(protocol string) (string, error) {
	switch protocol {
	case "https":
		return fmt.Sprintf("https://%s.git", s.Repo), nil
	case "ssh":
		return fmt.Sprintf("git@%s.git", s.Repo), nil
	default:
		return "", fmt.Errorf("unsupported git protocol %q", protocol)
	}
}

// ImportPath liefert das Verzeichnis, aus dem die Metadaten der Studie gelesen werden.
func (s Study) ImportPath(root, subDirectory string) string {
	return filepath.Join(root, s.Name, subDirectory)
}

// HasTopics ist wahr, sobald für mindestens eine Sprache Topics importiert wurden.
func (s Study) HasTopics() bool {
	return len(s.TopicLanguages) > 0
}

// TopicList speichert die Topic-Bäume einer Studie je Sprache als JSON.
type TopicList struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	StudyID   uuid.UUID      `json:"study_id" gorm:"type:uuid;uniqueIndex;not null"`
	Topiclist datatypes.JSON `json:"topiclist"`
}

func (TopicList) TableName() string { return "topic_lists" }

// Topics gibt die Topics einer Sprache zurück, oder nil, wenn es keine gibt.
func (t TopicList) Topics(language string) []any {
	var entries []struct {
		Language string `json:"language"`
		Topics   []any  `json:"topics"`
	}
	if err := json.Unmarshal(t.Topiclist, &entries); err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry.Language == language {
			return entry.Topics
		}
	}
	return nil
}
