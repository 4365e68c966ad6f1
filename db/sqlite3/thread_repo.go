package sqlite3

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/posthub/discuss"
)

// ThreadRepository answers whether the post or group a comment is attached to exists.
type ThreadRepository struct {
	db *sql.DB
}

var _ discuss.ThreadFinder = (*ThreadRepository)(nil)

func NewThreadRepository(db *sql.DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

func (repo *ThreadRepository) ThreadExists(ctx context.Context, thread discuss.ThreadRef) (bool, error) {
	var table string

	switch thread.Kind {
	case discuss.ThreadKindPost:
		table = tablePosts
	case discuss.ThreadKindGroup:
		table = tableGroups
	default:
		return false, nil
	}

	var count int

	err := sq.Select("COUNT(*)").
		From(table).
		Where(sq.Eq{"id": thread.ID}).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count threads: %w", err)
	}

	return count > 0, nil
}
