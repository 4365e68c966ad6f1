package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/posthub/contents"
)

const tableCategories = "categories"

type CategoryRepository struct {
	db *sql.DB
}

var _ contents.CategoryRepository = (*CategoryRepository)(nil)

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const (
	categoryFieldID   = "id"
	categoryFieldName = "name"
	categoryFieldSlug = "slug"
)

func categoryColumns() []string {
	return []string{categoryFieldID, categoryFieldName, categoryFieldSlug}
}

func scanCategory(row sq.RowScanner) (*contents.Category, error) {
	var category contents.Category

	err := row.Scan(&category.ID, &category.Name, &category.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &category, nil
}

func (repo *CategoryRepository) Insert(ctx context.Context, category *contents.Category) error {
	_, err := sq.Insert(tableCategories).
		Columns(categoryColumns()...).
		Values(category.ID, category.Name, category.Slug).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err, tableCategories) {
			return &contents.CategoryAlreadyExistsError{Name: category.Name}
		}

		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *CategoryRepository) Find(ctx context.Context, categoryID string) (*contents.Category, error) {
	q := sq.Select(categoryColumns()...).
		From(tableCategories).
		Where(sq.Eq{categoryFieldID: categoryID}).
		RunWith(repo.db)

	category, err := scanCategory(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &contents.CategoryNotFoundError{ID: categoryID}
		}

		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	return category, nil
}

// FindByName matches case-insensitively through the column's NOCASE collation.
func (repo *CategoryRepository) FindByName(ctx context.Context, name string) (*contents.Category, error) {
	q := sq.Select(categoryColumns()...).
		From(tableCategories).
		Where(sq.Eq{categoryFieldName: name}).
		RunWith(repo.db)

	category, err := scanCategory(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &contents.CategoryNotFoundError{Name: name}
		}

		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	return category, nil
}

func (repo *CategoryRepository) List(ctx context.Context) ([]*contents.Category, error) {
	rows, err := sq.Select(categoryColumns()...).
		From(tableCategories).
		OrderBy(categoryFieldName).
		RunWith(repo.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	categories := make([]*contents.Category, 0)

	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}

		categories = append(categories, category)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return categories, nil
}
