// Package repository persists reliability profiles and decision records in PostgreSQL.
package repository

import (
	"fmt"

	"github.com/yourusername/clever-tipster/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Reliability ReliabilityRepository
	Decision    DecisionRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Reliability: NewPostgresReliabilityRepository(db),
		Decision:    NewPostgresDecisionRepository(db),
	}, nil
}
