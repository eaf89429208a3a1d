package models

import (
	"time"

	"github.com/google/uuid"
)

// Publication repräsentiert eine Veröffentlichung, die auf Daten einer Studie beruht.
type Publication struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StudyID  uuid.UUID `json:"study_id" gorm:"type:uuid;not null;uniqueIndex:idx_publications_study_name"`
	Name     string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_publications_study_name"`
	SubType  string    `json:"sub_type" gorm:"size:255"`
	Title    string    `json:"title" gorm:"type:text"`
	Author   string    `json:"author" gorm:"type:text"`
	Year     string    `json:"year" gorm:"size:32"`
	Abstract string    `json:"abstract" gorm:"type:text"`
	Cite     string    `json:"cite" gorm:"type:text"`
	Image    string    `json:"image" gorm:"type:text"`
	URL      string    `json:"url" gorm:"type:text"`
	DOI      string    `json:"doi" gorm:"column:doi;index"`
	Studies  string    `json:"studies" gorm:"type:text"`
}

func (Publication) TableName() string { return "publications" }

// Attachment ist ein Link (z.B. Dokumentation) an einer Studie oder einem ihrer Objekte.
type Attachment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContextStudyID uuid.UUID  `json:"context_study_id" gorm:"type:uuid;not null;uniqueIndex:idx_attachments_context_url"`
	StudyID        *uuid.UUID `json:"study_id" gorm:"type:uuid"`
	DatasetID      *uuid.UUID `json:"dataset_id" gorm:"type:uuid"`
	VariableID     *uuid.UUID `json:"variable_id" gorm:"type:uuid"`
	InstrumentID   *uuid.UUID `json:"instrument_id" gorm:"type:uuid"`
	QuestionID     *uuid.UUID `json:"question_id" gorm:"type:uuid"`
	URL            string     `json:"url" gorm:"size:512;not null;uniqueIndex:idx_attachments_context_url"`
	URLText        string     `json:"url_text" gorm:"type:text"`
}

func (Attachment) TableName() string { return "attachments" }

// All listet alle Modelle für die Auto-Migration.
func All() []any {
	return []any{
		&Study{}, &TopicList{}, &Topic{}, &Concept{}, &AnalysisUnit{}, &Period{}, &ConceptualDataset{},
		&Dataset{}, &Variable{}, &Transformation{},
		&Instrument{}, &Question{}, &QuestionVariable{}, &ConceptQuestion{},
		&Publication{}, &Attachment{},
	}
}
