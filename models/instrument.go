package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Instrument ist ein Fragebogen einer Studie.
type Instrument struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StudyID     uuid.UUID `json:"study_id" gorm:"type:uuid;not null;uniqueIndex:idx_instruments_study_name"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_instruments_study_name"`
	Label       string    `json:"label" gorm:"size:255"`
	LabelDE     string    `json:"label_de" gorm:"column:label_de;size:255"`
	Description string    `json:"description" gorm:"type:text"`

	PeriodID       *uint         `json:"period_id" gorm:"index"`
	Period         *Period       `json:"-"`
	AnalysisUnitID *uint         `json:"analysis_unit_id" gorm:"index"`
	AnalysisUnit   *AnalysisUnit `json:"-"`
}

func (Instrument) TableName() string { return "instruments" }

func (i *Instrument) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = InstrumentID(i.StudyID, i.Name)
	}
	return nil
}

// Question ist eine Frage innerhalb eines Instruments, sortiert nach SortID.
type Question struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InstrumentID  uuid.UUID      `json:"instrument_id" gorm:"type:uuid;not null;uniqueIndex:idx_questions_instrument_name"`
	Instrument    *Instrument    `json:"-"`
	Name          string         `json:"name" gorm:"size:255;not null;uniqueIndex:idx_questions_instrument_name"`
	Label         string         `json:"label" gorm:"size:255"`
	LabelDE       string         `json:"label_de" gorm:"column:label_de;size:255"`
	Description   string         `json:"description" gorm:"type:text"`
	Instruction   string         `json:"instruction" gorm:"type:text"`
	InstructionDE string         `json:"instruction_de" gorm:"column:instruction_de;type:text"`
	SortID        *int           `json:"sort_id" gorm:"index"`
	Items         datatypes.JSON `json:"items"`
}

func (Question) TableName() string { return "questions" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = QuestionID(q.InstrumentID, q.Name)
	}
	return nil
}

// QuestionVariable verknüpft eine Frage mit den Variablen, die aus ihr entstehen.
type QuestionVariable struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	QuestionID uuid.UUID `json:"question_id" gorm:"type:uuid;not null;uniqueIndex:idx_questions_variables_pair"`
	VariableID uuid.UUID `json:"variable_id" gorm:"type:uuid;not null;uniqueIndex:idx_questions_variables_pair"`
}

func (QuestionVariable) TableName() string { return "questions_variables" }

// ConceptQuestion verknüpft ein Konzept mit einer Frage.
type ConceptQuestion struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	QuestionID uuid.UUID `json:"question_id" gorm:"type:uuid;not null;uniqueIndex:idx_concepts_questions_pair"`
	ConceptID  uint      `json:"concept_id" gorm:"not null;uniqueIndex:idx_concepts_questions_pair"`
}

func (ConceptQuestion) TableName() string { return "concepts_questions" }
