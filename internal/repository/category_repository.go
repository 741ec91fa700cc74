package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CategoryRepository defines persistence access for the category registry.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	GetByCategoryID(ctx context.Context, categoryID string) (*domain.Category, error)
	ListActive(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	subIssues, err := marshalSubIssues(category)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO categories (category_id, label, description, sub_issues, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	err = r.pool.QueryRow(ctx, query,
		category.CategoryID,
		category.Label,
		category.Description,
		subIssues,
		category.IsActive,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	return mapConstraintError(err)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	subIssues, err := marshalSubIssues(category)
	if err != nil {
		return err
	}

	const query = `
        UPDATE categories SET label=$1, description=$2, sub_issues=$3, is_active=$4, updated_at=NOW()
        WHERE category_id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		category.Label,
		category.Description,
		subIssues,
		category.IsActive,
		category.CategoryID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const categoryColumns = `id, category_id, label, description, sub_issues, is_active, created_at, updated_at`

func (r *categoryRepository) GetByCategoryID(ctx context.Context, categoryID string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE category_id=$1`
	row := r.pool.QueryRow(ctx, query, categoryID)
	return scanCategory(row)
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE is_active ORDER BY category_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *category)
	}
	return result, rows.Err()
}

func marshalSubIssues(category *domain.Category) ([]byte, error) {
	subIssues := category.SubIssues
	if subIssues == nil {
		subIssues = map[string]domain.SubIssue{}
	}
	return json.Marshal(subIssues)
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		category  domain.Category
		subIssues []byte
	)
	if err := row.Scan(
		&category.ID,
		&category.CategoryID,
		&category.Label,
		&category.Description,
		&subIssues,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(subIssues) > 0 {
		if err := json.Unmarshal(subIssues, &category.SubIssues); err != nil {
			return nil, err
		}
	}
	return &category, nil
}
