package buildcatalogresources

import "careplan-workers/internal/models"

type Input struct {
	Classification models.Classification `json:"classification"`
}

type Output struct {
	CatalogResources []models.ResourceEntry `json:"catalogResources"`
}
