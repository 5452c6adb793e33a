package db

import (
	"context"

	"github.com/battlelens/battlelens/internal/models"
)

// MaxEntries caps the stored history: saving past the cap evicts the oldest
// battles so the store never grows unbounded.
const MaxEntries = 100

// Config holds database connection configuration.
type Config struct {
	Provider string            `yaml:"provider"`
	URI      string            `yaml:"uri"`
	Database string            `yaml:"database"`
	Options  map[string]string `yaml:"options"`
}

// HistoryStore defines battle history persistence. Implementations exist
// for SQLite and MongoDB.
type HistoryStore interface {
	// Connect establishes the connection and prepares the schema
	Connect(ctx context.Context) error

	// Disconnect closes the connection
	Disconnect(ctx context.Context) error

	// Ping checks the connection
	Ping(ctx context.Context) error

	// SaveEntry persists one battle, evicting the oldest past MaxEntries
	SaveEntry(ctx context.Context, entry *models.HistoryEntry) error

	// GetEntry retrieves a battle by ID
	GetEntry(ctx context.Context, id string) (*models.HistoryEntry, error)

	// ListEntries returns up to limit battles, most recent first
	ListEntries(ctx context.Context, limit int) ([]*models.HistoryEntry, error)

	// DeleteEntry removes a battle by ID
	DeleteEntry(ctx context.Context, id string) error

	// ClearEntries removes all battles and returns how many were removed
	ClearEntries(ctx context.Context) (int, error)

	// Stats aggregates the stored history
	Stats(ctx context.Context) (*models.HistoryStats, error)
}
