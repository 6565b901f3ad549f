package generatecareplan

import (
	assembleplan "careplan-workers/internal/workers/triage/assemble-plan"
	buildcatalogresources "careplan-workers/internal/workers/triage/build-catalog-resources"
	classifyintake "careplan-workers/internal/workers/triage/classify-intake"
	fetchnearbyresources "careplan-workers/internal/workers/triage/fetch-nearby-resources"
	generateexercises "careplan-workers/internal/workers/triage/generate-exercises"
	rerankresources "careplan-workers/internal/workers/triage/rerank-resources"
)

// Config carries one config per stage.
type Config struct {
	Classify  *classifyintake.Config
	Catalog   *buildcatalogresources.Config
	Fetch     *fetchnearbyresources.Config
	Rerank    *rerankresources.Config
	Exercises *generateexercises.Config
	Assemble  *assembleplan.Config
}

func LoadConfig() *Config {
	return &Config{
		Classify:  classifyintake.LoadConfig(),
		Catalog:   buildcatalogresources.LoadConfig(),
		Fetch:     fetchnearbyresources.LoadConfig(),
		Rerank:    rerankresources.LoadConfig(),
		Exercises: generateexercises.LoadConfig(),
		Assemble:  assembleplan.LoadConfig(),
	}
}
