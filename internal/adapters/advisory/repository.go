package advisory

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

var _ ports.AdvisoryRepository = (*SQLiteRepository)(nil)

// SQLiteRepository implements ports.AdvisoryRepository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the advisory database at dbPath.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets the API read while the loader writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

const selectColumns = `
	SELECT advisory_id, title, description, cvss_vector, score, severity,
	       published_date, scored_at, refs
	FROM advisories`

// GetByID retrieves an advisory. It returns nil, nil when none exists.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*domain.Advisory, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+" WHERE advisory_id = ?", id)

	adv, err := scanAdvisory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get advisory: %w", err)
	}
	return &adv, nil
}

// ListBySeverity returns every advisory with the given rating, highest score first.
func (r *SQLiteRepository) ListBySeverity(ctx context.Context, severity domain.Severity) ([]domain.Advisory, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+" WHERE severity = ? ORDER BY score DESC, advisory_id", string(severity))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var advisories []domain.Advisory
	for rows.Next() {
		adv, err := scanAdvisory(rows)
		if err != nil {
			return nil, err
		}
		advisories = append(advisories, adv)
	}
	return advisories, rows.Err()
}

// UpsertAdvisory inserts or replaces an advisory keyed by its ID.
func (r *SQLiteRepository) UpsertAdvisory(ctx context.Context, adv domain.Advisory) error {
	refsJSON, err := json.Marshal(adv.References)
	if err != nil {
		return fmt.Errorf("failed to marshal references: %w", err)
	}

	query := `
		INSERT INTO advisories (
			advisory_id, title, description, cvss_vector, score, severity,
			published_date, scored_at, refs
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(advisory_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			cvss_vector = excluded.cvss_vector,
			score = excluded.score,
			severity = excluded.severity,
			published_date = excluded.published_date,
			scored_at = excluded.scored_at,
			refs = excluded.refs,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err = r.db.ExecContext(ctx, query,
		adv.ID, adv.Title, adv.Description, adv.CVSSVector, adv.Score, string(adv.Severity),
		formatTime(adv.PublishedDate), formatTime(adv.ScoredAt), string(refsJSON),
	)
	return err
}

// UpdateImportStatus records the outcome of the latest import.
func (r *SQLiteRepository) UpdateImportStatus(ctx context.Context, status domain.ImportStatus) error {
	query := `
		UPDATE advisory_import_status
		SET last_import_time = ?,
		    source = ?,
		    record_count = ?,
		    failed_count = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`

	_, err := r.db.ExecContext(ctx, query,
		formatTime(status.LastImportTime),
		status.Source,
		status.RecordCount,
		status.FailedCount,
	)
	return err
}

// GetImportStatus returns the outcome of the latest import.
func (r *SQLiteRepository) GetImportStatus(ctx context.Context) (domain.ImportStatus, error) {
	var status domain.ImportStatus
	var lastImport string

	err := r.db.QueryRowContext(ctx,
		"SELECT last_import_time, source, record_count, failed_count FROM advisory_import_status WHERE id = 1",
	).Scan(&lastImport, &status.Source, &status.RecordCount, &status.FailedCount)
	if err != nil {
		return status, err
	}

	status.LastImportTime = parseTime(lastImport)
	return status, nil
}

// GetTotalCount returns the number of stored advisories.
func (r *SQLiteRepository) GetTotalCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM advisories").Scan(&count)
	return count, err
}

// Stats aggregates the store per severity along with the last import outcome.
func (r *SQLiteRepository) Stats(ctx context.Context) (domain.AdvisoryStats, error) {
	stats := domain.NewAdvisoryStats()

	rows, err := r.db.QueryContext(ctx, "SELECT severity, COUNT(*), SUM(score), MAX(score) FROM advisories GROUP BY severity")
	if err != nil {
		return stats, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var sum float64
	for rows.Next() {
		var (
			severity      string
			count         int
			total, maxima float64
		)
		if err := rows.Scan(&severity, &count, &total, &maxima); err != nil {
			return stats, fmt.Errorf("scan failed: %w", err)
		}
		stats.BySeverity[domain.Severity(severity)] += count
		stats.Total += count
		sum += total
		if maxima > stats.MaxScore {
			stats.MaxScore = maxima
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}
	if stats.Total > 0 {
		stats.AverageScore = math.Round(sum/float64(stats.Total)*10) / 10
	}

	if stats.LastImport, err = r.GetImportStatus(ctx); err != nil {
		return stats, fmt.Errorf("failed to read import status: %w", err)
	}
	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAdvisory(s scanner) (domain.Advisory, error) {
	var adv domain.Advisory
	var severity string
	var publishedDate, refsJSON sql.NullString
	var scoredAt string

	err := s.Scan(
		&adv.ID, &adv.Title, &adv.Description, &adv.CVSSVector, &adv.Score, &severity,
		&publishedDate, &scoredAt, &refsJSON,
	)
	if err != nil {
		return adv, err
	}

	adv.Severity = domain.Severity(severity)
	adv.PublishedDate = parseTime(publishedDate.String)
	adv.ScoredAt = parseTime(scoredAt)

	if refsJSON.String != "" {
		if err := json.Unmarshal([]byte(refsJSON.String), &adv.References); err != nil {
			return adv, fmt.Errorf("failed to decode references for %s: %w", adv.ID, err)
		}
	}

	return adv, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
