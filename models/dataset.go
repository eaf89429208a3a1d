package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dataset ist eine Datendatei einer Studie und besitzt deren Variablen.
type Dataset struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StudyID     uuid.UUID `json:"study_id" gorm:"type:uuid;not null;uniqueIndex:idx_datasets_study_name"`
	Study       *Study    `json:"-"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_datasets_study_name"`
	Label       string    `json:"label" gorm:"size:255"`
	LabelDE     string    `json:"label_de" gorm:"column:label_de;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Folder      string    `json:"folder" gorm:"size:255"`

	PrimaryKey datatypes.JSONSlice[string] `json:"primary_key"`

	PeriodID            *uint              `json:"period_id" gorm:"index"`
	Period              *Period            `json:"-"`
	AnalysisUnitID      *uint              `json:"analysis_unit_id" gorm:"index"`
	AnalysisUnit        *AnalysisUnit      `json:"-"`
	ConceptualDatasetID *uint              `json:"conceptual_dataset_id" gorm:"index"`
	ConceptualDataset   *ConceptualDataset `json:"-"`
}

func (Dataset) TableName() string { return "datasets" }

func (d *Dataset) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = DatasetID(d.StudyID, d.Name)
	}
	return nil
}

// AfterSave zieht die Periode in die Variablen des Datensatzes nach.
func (d *Dataset) AfterSave(tx *gorm.DB) error {
	return tx.Session(&gorm.Session{NewDB: true}).
		Model(&Variable{}).
		Where("dataset_id = ?", d.ID).
		UpdateColumn("period_id", d.PeriodID).Error
}

// Transformation ist eine gerichtete Kante zwischen zwei Variablen (Herkunft -> Ziel),
// z.B. von einer Wide- zu einer Long-Variable.
type Transformation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	OriginID  uuid.UUID `json:"origin_id" gorm:"type:uuid;not null;uniqueIndex:idx_transformations_edge"`
	Origin    *Variable `json:"-"`
	TargetID  uuid.UUID `json:"target_id" gorm:"type:uuid;not null;uniqueIndex:idx_transformations_edge"`
	Target    *Variable `json:"-"`
}

func (Transformation) TableName() string { return "transformations" }
