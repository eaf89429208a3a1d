package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Variable speichert eine einzelne Variable eines Datensatzes.
type Variable struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name      string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_variables_name_dataset"`
	DatasetID uuid.UUID `json:"dataset_id" gorm:"type:uuid;not null;uniqueIndex:idx_variables_name_dataset"`
	Dataset   *Dataset  `json:"-"`

	Label           string `json:"label" gorm:"size:255"`
	LabelDE         string `json:"label_de" gorm:"column:label_de;size:255"`
	Description     string `json:"description" gorm:"type:text"`
	DescriptionDE   string `json:"description_de" gorm:"column:description_de;type:text"`
	DescriptionLong string `json:"description_long" gorm:"type:text"`
	SortID          *int   `json:"sort_id"`
	ImageURL        string `json:"image_url" gorm:"type:text"`
	Scale           string `json:"scale" gorm:"size:255"`

	StatisticsType string            `json:"statistics_type"` // categorical, numerical, ordinal
	StatisticsFlag bool              `json:"statistics_flag" gorm:"not null;default:false"`
	Statistics     datatypes.JSONMap `json:"statistics"`
	Categories     datatypes.JSONMap `json:"categories"`
	Images         datatypes.JSONMap `json:"images"`

	ConceptID *uint    `json:"concept_id" gorm:"index"`
	Concept   *Concept `json:"-"`
	// Kopie von Dataset.PeriodID, wird bei jedem Speichern gesetzt
	PeriodID *uint   `json:"period_id" gorm:"index"`
	Period   *Period `json:"-"`
}

func (Variable) TableName() string { return "variables" }

// BeforeSave setzt die abgeleitete ID und spiegelt die Periode des Datensatzes.
// Das passiert hier und nicht im Import, damit es für jeden Speicherpfad gilt.
func (v *Variable) BeforeSave(tx *gorm.DB) error {
	if v.DatasetID == uuid.Nil {
		return errors.New("variable without dataset")
	}
	v.ID = VariableID(v.DatasetID, v.Name)

	var dataset Dataset
	err := tx.Session(&gorm.Session{NewDB: true}).
		Select("id", "period_id").
		Where("id = ?", v.DatasetID).
		Take(&dataset).Error
	if err != nil {
		return fmt.Errorf("load dataset of variable %q: %w", v.Name, err)
	}
	v.PeriodID = dataset.PeriodID
	return nil
}

func (v Variable) String() string {
	if v.Dataset != nil {
		return v.Dataset.Name + "/" + v.Name
	}
	return v.Name
}

// Title liefert das Label, oder den Namen, wenn kein Label gesetzt ist.
func (v Variable) Title() string {
	if v.Label == "" {
		return v.Name
	}
	return v.Label
}

// IsCategorical ist wahr, wenn Kategorien hinterlegt sind.
func (v Variable) IsCategorical() bool {
	return len(v.Categories) > 0
}

// Category ist eine Ausprägung einer kategorialen Variable.
type Category struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	LabelDE   string `json:"label_de"`
	Frequency int64  `json:"frequency"`
	Valid     bool   `json:"valid"`

	order int64
}

// CategoryList zerlegt die parallelen Listen aus Categories in einzelne Kategorien.
// Nicht-negative Werte stehen aufsteigend vorne, negative (Missings) absteigend hinten.
func (v Variable) CategoryList() []Category {
	if len(v.Categories) == 0 {
		return []Category{}
	}
	values := listOf(v.Categories["values"])
	labels := listOf(v.Categories["labels"])
	labelsDE, ok := v.Categories["labels_de"]
	germanLabels := labels
	if ok {
		germanLabels = listOf(labelsDE)
	}
	// zweisprachige Dateien liefern teilweise zu wenige deutsche Labels
	if len(germanLabels) < len(values) {
		padded := make([]any, 0, len(values))
		padded = append(padded, germanLabels...)
		padded = append(padded, values[len(germanLabels):]...)
		germanLabels = padded
	}
	frequencies := listOf(v.Categories["frequencies"])
	missings := listOf(v.Categories["missings"])

	categories := make([]Category, 0, len(values))
	for i, value := range values {
		order, _ := toInt(value)
		freq, _ := toInt(at(frequencies, i))
		missing, _ := at(missings, i).(bool)
		categories = append(categories, Category{
			Value:     toString(value),
			Label:     toString(at(labels, i)),
			LabelDE:   toString(at(germanLabels, i)),
			Frequency: freq,
			Valid:     !missing,
			order:     order,
		})
	}
	return sortCategories(categories)
}

func sortCategories(categories []Category) []Category {
	var positive, negative []Category
	for _, c := range categories {
		if c.order >= 0 {
			positive = append(positive, c)
		} else {
			negative = append(negative, c)
		}
	}
	sort.SliceStable(positive, func(i, j int) bool { return positive[i].order < positive[j].order })
	sort.SliceStable(negative, func(i, j int) bool { return negative[i].order > negative[j].order })
	return append(positive, negative...)
}

// TranslationLanguages listet die Sprachen, für die es übersetzte Labels gibt.
func (v Variable) TranslationLanguages() []string {
	return []string{"de"}
}

func (v Variable) HasTranslations() bool {
	return len(v.TranslationLanguages()) > 0
}

// TranslationTable ordnet jedem Kategorienwert seine Labels je Sprache zu.
func (v Variable) TranslationTable() map[string]map[string]string {
	table := map[string]map[string]string{}
	for _, c := range v.CategoryList() {
		table[c.Value] = map[string]string{"en": c.Label, "de": c.LabelDE}
	}
	return table
}

func listOf(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return nil
}

func at(list []any, i int) any {
	if i < len(list) {
		return list[i]
	}
	return nil
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		return int64(f), err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
