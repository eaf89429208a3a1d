package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ddionrails/models"
)

// CatalogService beantwortet lesende Anfragen an den importierten Katalog.
type CatalogService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewCatalogService(db *gorm.DB, logger *zap.Logger) *CatalogService {
	return &CatalogService{DB: db, Logger: logger}
}

// PeriodGroup sind die Variablen einer Periode, sortiert nach Name.
type PeriodGroup struct {
	Period    string            `json:"period"`
	Variables []models.Variable `json:"variables"`
}

// Studies listet alle Studien nach Name.
func (c *CatalogService) Studies(ctx context.Context) ([]models.Study, error) {
	var studies []models.Study
	err := c.DB.WithContext(ctx).Order("name").Find(&studies).Error
	return studies, err
}

// GetStudy lädt eine Studie über ihren Namen.
func (c *CatalogService) GetStudy(ctx context.Context, name string) (*models.Study, error) {
	var study models.Study
	err := c.DB.WithContext(ctx).Where("name = ?", NormalizeName(name)).Take(&study).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrStudyNotFound, "study %q", name)
	}
	if err != nil {
		return nil, err
	}
	return &study, nil
}

// GetVariable lädt eine Variable samt Datensatz, Studie und Konzept.
func (c *CatalogService) GetVariable(ctx context.Context, study, dataset, name string) (*models.Variable, error) {
	var variable models.Variable
	err := c.DB.WithContext(ctx).
		Preload("Dataset.Study").
		Preload("Concept").
		Preload("Period").
		Joins("JOIN datasets ON datasets.id = variables.dataset_id").
		Joins("JOIN studies ON studies.id = datasets.study_id").
		Where("studies.name = ? AND datasets.name = ? AND variables.name = ?",
			NormalizeName(study), NormalizeName(dataset), NormalizeName(name)).
		Take(&variable).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrVariableNotFound, "variable %s/%s/%s", study, dataset, name)
	}
	if err != nil {
		return nil, err
	}
	return &variable, nil
}

// RelatedVariables liefert alle Variablen der Studie mit demselben Konzept (inklusive v).
func (c *CatalogService) RelatedVariables(ctx context.Context, v *models.Variable) ([]models.Variable, error) {
	if v.ConceptID == nil {
		return []models.Variable{}, nil
	}
	studyID, err := c.studyOf(ctx, v)
	if err != nil {
		return nil, err
	}
	var related []models.Variable
	err = c.DB.WithContext(ctx).
		Preload("Dataset").
		Joins("JOIN datasets ON datasets.id = variables.dataset_id").
		Where("variables.concept_id = ? AND datasets.study_id = ?", *v.ConceptID, studyID).
		Order("variables.name").
		Find(&related).Error
	return related, err
}

// RelatedVariablesByPeriod gruppiert RelatedVariables nach Periode. Jede Periode der
// Studie ist enthalten; "none" nur, wenn Variablen ohne Periode der Studie existieren.
func (c *CatalogService) RelatedVariablesByPeriod(ctx context.Context, v *models.Variable) ([]PeriodGroup, error) {
	related, err := c.RelatedVariables(ctx, v)
	if err != nil {
		return nil, err
	}
	return c.groupByPeriod(ctx, v, related)
}

// TargetVariablesByPeriod gruppiert die Variablen, die aus v abgeleitet sind.
func (c *CatalogService) TargetVariablesByPeriod(ctx context.Context, v *models.Variable) ([]PeriodGroup, error) {
	var targets []models.Variable
	err := c.DB.WithContext(ctx).
		Preload("Dataset").
		Joins("JOIN transformations ON transformations.target_id = variables.id").
		Where("transformations.origin_id = ?", v.ID).
		Order("variables.name").
		Find(&targets).Error
	if err != nil {
		return nil, err
	}
	return c.groupByPeriod(ctx, v, targets)
}

// OriginVariablesByPeriod gruppiert die Variablen, aus denen v abgeleitet ist.
func (c *CatalogService) OriginVariablesByPeriod(ctx context.Context, v *models.Variable) ([]PeriodGroup, error) {
	var origins []models.Variable
	err := c.DB.WithContext(ctx).
		Preload("Dataset").
		Joins("JOIN transformations ON transformations.origin_id = variables.id").
		Where("transformations.target_id = ?", v.ID).
		Order("variables.name").
		Find(&origins).Error
	if err != nil {
		return nil, err
	}
	return c.groupByPeriod(ctx, v, origins)
}

func (c *CatalogService) groupByPeriod(ctx context.Context, v *models.Variable, variables []models.Variable) ([]PeriodGroup, error) {
	studyID, err := c.studyOf(ctx, v)
	if err != nil {
		return nil, err
	}
	var periods []models.Period
	if err := c.DB.WithContext(ctx).Where("study_id = ?", studyID).Find(&periods).Error; err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(periods))
	groups := make(map[string][]models.Variable, len(periods)+1)
	for _, p := range periods {
		names[p.ID] = p.Name
		groups[p.Name] = []models.Variable{}
	}
	for _, variable := range variables {
		key := PlaceholderName
		if variable.PeriodID != nil {
			if name, ok := names[*variable.PeriodID]; ok {
				key = name
			}
		}
		groups[key] = append(groups[key], variable)
	}

	// der Platzhalter erscheint nur mit Variablen, auch wenn es eine Periode "none" gibt
	if len(groups[PlaceholderName]) == 0 {
		delete(groups, PlaceholderName)
	}
	out := make([]PeriodGroup, 0, len(groups))
	for name, vars := range groups {
		out = append(out, PeriodGroup{Period: name, Variables: vars})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (c *CatalogService) studyOf(ctx context.Context, v *models.Variable) (uuid.UUID, error) {
	if v.Dataset != nil {
		return v.Dataset.StudyID, nil
	}
	var dataset models.Dataset
	if err := c.DB.WithContext(ctx).Select("id", "study_id").Take(&dataset, "id = ?", v.DatasetID).Error; err != nil {
		return uuid.Nil, errors.Wrapf(err, "dataset of variable %q", v.Name)
	}
	return dataset.StudyID, nil
}

// PublicationReferences liefert die formatierten Literaturangaben einer Studie.
func (c *CatalogService) PublicationReferences(ctx context.Context, study string) ([]Reference, error) {
	s, err := c.GetStudy(ctx, study)
	if err != nil {
		return nil, err
	}
	var publications []models.Publication
	if err := c.DB.WithContext(ctx).Where("study_id = ?", s.ID).Find(&publications).Error; err != nil {
		return nil, err
	}
	return BuildBibliography(publications), nil
}
