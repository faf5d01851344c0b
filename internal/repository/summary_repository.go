package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
)

// SummaryRepository stores the cached per-category complaint summaries.
// The table acts as a cache partition keyed by (category, gender); gender
// NULL is its own partition, matched with IS NOT DISTINCT FROM.
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository constructs a SummaryRepository.
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// ListByGender returns every cached summary for the gender partition.
func (r *SummaryRepository) ListByGender(ctx context.Context, gender *string) ([]models.CategorySummary, error) {
	const query = `SELECT id, category, gender, summary, generated_at
        FROM category_summaries WHERE gender IS NOT DISTINCT FROM $1`
	var summaries []models.CategorySummary
	if err := r.db.SelectContext(ctx, &summaries, query, gender); err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	return summaries, nil
}

// FindLatest returns the cached summary for a single (category, gender) key,
// or nil when the partition holds no entry.
func (r *SummaryRepository) FindLatest(ctx context.Context, category string, gender *string) (*models.CategorySummary, error) {
	const query = `SELECT id, category, gender, summary, generated_at
        FROM category_summaries
        WHERE category = $1 AND gender IS NOT DISTINCT FROM $2
        ORDER BY generated_at DESC LIMIT 1`
	var summaries []models.CategorySummary
	if err := r.db.SelectContext(ctx, &summaries, query, category, gender); err != nil {
		return nil, fmt.Errorf("find summary: %w", err)
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	return &summaries[0], nil
}

// Replace overwrites the (category, gender) partition with a freshly
// generated summary inside one transaction, so readers never observe an
// empty partition mid-refresh.
func (r *SummaryRepository) Replace(ctx context.Context, category string, gender *string, summary string, generatedAt time.Time) (*models.CategorySummary, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin summary replace: %w", err)
	}
	defer tx.Rollback()

	const del = `DELETE FROM category_summaries WHERE category = $1 AND gender IS NOT DISTINCT FROM $2`
	if _, err := tx.ExecContext(ctx, del, category, gender); err != nil {
		return nil, fmt.Errorf("clear summary partition: %w", err)
	}

	row := models.CategorySummary{
		ID:          uuid.NewString(),
		Category:    category,
		Gender:      gender,
		Summary:     summary,
		GeneratedAt: generatedAt,
	}
	const ins = `INSERT INTO category_summaries (id, category, gender, summary, generated_at)
        VALUES (:id, :category, :gender, :summary, :generated_at)`
	if _, err := tx.NamedExecContext(ctx, ins, row); err != nil {
		return nil, fmt.Errorf("insert summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit summary replace: %w", err)
	}
	return &row, nil
}
