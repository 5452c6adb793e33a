package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/battlelens/battlelens/internal/db"
	"github.com/battlelens/battlelens/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements the HistoryStore interface for SQLite
type Store struct {
	db     *sql.DB
	config *db.Config
}

// New creates a new SQLite history store
func New(config *db.Config) (*Store, error) {
	return &Store{
		config: config,
	}, nil
}

// Connect establishes connection to SQLite and runs migrations
func (s *Store) Connect(ctx context.Context) error {
	// Expand the URI path (handle ~ and relative paths)
	dbPath := s.config.URI
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	} else if !filepath.IsAbs(dbPath) {
		absPath, err := filepath.Abs(dbPath)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		dbPath = absPath
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	database, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database at path '%s': %w", dbPath, err)
	}

	if err := database.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping SQLite database at path '%s': %w", dbPath, err)
	}

	s.db = database

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Disconnect closes the SQLite connection
func (s *Store) Disconnect(ctx context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("not connected to database")
	}
	return s.db.PingContext(ctx)
}

// runMigrations applies the embedded schema migrations
func (s *Store) runMigrations() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// SaveEntry persists one battle and evicts the oldest past the cap
func (s *Store) SaveEntry(ctx context.Context, entry *models.HistoryEntry) error {
	analysisJSON := ""
	if entry.Analysis != nil {
		data, err := json.Marshal(entry.Analysis)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis: %w", err)
		}
		analysisJSON = string(data)
	}

	query := `
		INSERT INTO battles (id, date, outcome, opponent, battle_type, damage_dealt, damage_received, enemy_killed, screenshot_count, analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Date,
		entry.Outcome,
		entry.Opponent,
		entry.BattleType,
		entry.DamageDealt,
		entry.DamageReceived,
		entry.EnemyKilled,
		entry.ScreenshotCount,
		analysisJSON,
	)
	if err != nil {
		return err
	}

	evict := `
		DELETE FROM battles WHERE id NOT IN (
			SELECT id FROM battles ORDER BY date DESC LIMIT ?
		)`
	_, err = s.db.ExecContext(ctx, evict, db.MaxEntries)
	return err
}

// GetEntry retrieves a battle by ID
func (s *Store) GetEntry(ctx context.Context, id string) (*models.HistoryEntry, error) {
	query := `
		SELECT id, date, outcome, opponent, battle_type, damage_dealt, damage_received, enemy_killed, screenshot_count, analysis
		FROM battles WHERE id = ?`

	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("battle not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns up to limit battles, most recent first
func (s *Store) ListEntries(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 || limit > db.MaxEntries {
		limit = db.MaxEntries
	}

	query := `
		SELECT id, date, outcome, opponent, battle_type, damage_dealt, damage_received, enemy_killed, screenshot_count, analysis
		FROM battles ORDER BY date DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteEntry removes a battle by ID
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM battles WHERE id = ?", id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("battle not found: %s", id)
	}
	return nil
}

// ClearEntries removes all battles
func (s *Store) ClearEntries(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM battles")
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

// Stats aggregates the stored history
func (s *Store) Stats(ctx context.Context) (*models.HistoryStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN outcome = 'Victory' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(damage_dealt), 0),
		       COALESCE(SUM(enemy_killed), 0)
		FROM battles`

	var stats models.HistoryStats
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalBattles,
		&stats.Wins,
		&stats.TotalDamageDealt,
		&stats.TotalKills,
	)
	if err != nil {
		return nil, err
	}

	if stats.TotalBattles > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalBattles) * 100
	}
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	var analysisJSON string

	err := row.Scan(
		&entry.ID,
		&entry.Date,
		&entry.Outcome,
		&entry.Opponent,
		&entry.BattleType,
		&entry.DamageDealt,
		&entry.DamageReceived,
		&entry.EnemyKilled,
		&entry.ScreenshotCount,
		&analysisJSON,
	)
	if err != nil {
		return nil, err
	}

	if analysisJSON != "" {
		var analysis models.AnalysisResult
		if err := json.Unmarshal([]byte(analysisJSON), &analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		entry.Analysis = &analysis
	}
	return &entry, nil
}
