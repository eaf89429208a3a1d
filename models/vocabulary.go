package models

import (
	"time"

	"github.com/google/uuid"
)

// Topic ist ein Knoten im Themenbaum einer Studie.
type Topic struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StudyID     uuid.UUID `json:"study_id" gorm:"type:uuid;index;not null"`
	Name        string    `json:"name" gorm:"size:255;uniqueIndex;not null"`
	Label       string    `json:"label" gorm:"size:255"`
	LabelDE     string    `json:"label_de" gorm:"column:label_de;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	ParentID    *uint     `json:"parent_id" gorm:"index"`
	Parent      *Topic    `json:"-"`
}

func (Topic) TableName() string { return "topics" }

// Concept bündelt Variablen und Fragen, die dasselbe messen.
type Concept struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StudyID     uuid.UUID `json:"study_id" gorm:"type:uuid;not null;uniqueIndex:idx_concepts_study_name"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_concepts_study_name"`
	Label       string    `json:"label" gorm:"size:255"`
	LabelDE     string    `json:"label_de" gorm:"column:label_de;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Topics      []Topic   `json:"-" gorm:"many2many:concept_topics"`
}

func (Concept) TableName() string { return "concepts" }

// AnalysisUnit beschreibt die Beobachtungseinheit (Person, Haushalt, ...).
type AnalysisUnit struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StudyID     uuid.UUID `json:"study_id" gorm:"type:uuid;not null;uniqueIndex:idx_analysis_units_study_name"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_analysis_units_study_name"`
	Label       string    `json:"label" gorm:"size:255"`
	LabelDE     string    `json:"label_de" gorm:"column:label_de;size:255"`
	Description string    `json:"description" gorm:"type:text"`
}

func (AnalysisUnit) TableName() string { return "analysis_units" }

// Period ist eine Erhebungswelle einer Studie.
type Period struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StudyID     uuid.UUID `json:"study_id" gorm:"type:uuid;not null;uniqueIndex:idx_periods_study_name"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_periods_study_name"`
	Label       string    `json:"label" gorm:"size:255"`
	LabelDE     string    `json:"label_de" gorm:"column:label_de;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Definition  string    `json:"definition" gorm:"size:255"`
}

func (Period) TableName() string { return "periods" }

type ConceptualDataset struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StudyID     uuid.UUID `json:"study_id" gorm:"type:uuid;not null;uniqueIndex:idx_conceptual_datasets_study_name"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_conceptual_datasets_study_name"`
	Label       string    `json:"label" gorm:"size:255"`
	LabelDE     string    `json:"label_de" gorm:"column:label_de;size:255"`
	Description string    `json:"description" gorm:"type:text"`
}

func (ConceptualDataset) TableName() string { return "conceptual_datasets" }
