package mcp

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/google/uuid"
)

const defaultModel = "project.task"

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// fieldSet builds a field set from tool arguments. Empty names use the
// defaults.
func fieldSet(dependency, dependencyInverted, start, stop string) (domain.FieldSet, error) {
	fs := domain.DefaultFieldSet()
	if dependency != "" {
		fs.Dependency.Name = dependency
	}
	if dependencyInverted != "" {
		fs.DependencyInverted.Name = dependencyInverted
	}
	if start != "" {
		fs.Start.Name = start
	}
	if stop != "" {
		fs.Stop.Name = stop
	}
	return fs, fs.Validate()
}

func modelOrDefault(model string) string {
	if model == "" {
		return defaultModel
	}
	return model
}
