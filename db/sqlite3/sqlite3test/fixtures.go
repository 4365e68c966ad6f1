package sqlite3test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/contents"
	"github.com/nasermirzaei89/posthub/db/sqlite3"
	"github.com/nasermirzaei89/posthub/groups"
	"github.com/stretchr/testify/require"
)

// CreateUser stores a user with a placeholder password hash.
func CreateUser(t *testing.T, db *sql.DB, superuser bool) *auth.User {
	t.Helper()

	user := &auth.User{
		ID:           uuid.NewString(),
		Username:     "user-" + uuid.NewString()[:8],
		PasswordHash: "-",
		IsSuperuser:  superuser,
		RegisteredAt: time.Now().UTC(),
	}

	profile := &auth.Profile{
		UserID:   user.ID,
		ImageURL: auth.DefaultProfileImageURL,
	}

	err := sqlite3.NewUserRepository(db).Insert(context.Background(), user, profile)
	require.NoError(t, err)

	return user
}

// CreatePost stores an approved post by authorID under a new category.
func CreatePost(t *testing.T, db *sql.DB, authorID string) *contents.Post {
	t.Helper()

	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	category := &contents.Category{
		ID:   uuid.NewString(),
		Name: "category " + suffix,
		Slug: "category-" + suffix,
	}

	err := sqlite3.NewCategoryRepository(db).Insert(ctx, category)
	require.NoError(t, err)

	timeNow := time.Now().UTC()

	post := &contents.Post{
		ID:         uuid.NewString(),
		Slug:       "post-" + suffix,
		Title:      "Post " + suffix,
		Content:    "content",
		Status:     contents.PostStatusApproved,
		AuthorID:   authorID,
		CategoryID: category.ID,
		CreatedAt:  timeNow,
		UpdatedAt:  timeNow,
	}

	err = sqlite3.NewPostRepository(db).Insert(ctx, post)
	require.NoError(t, err)

	return post
}

// CreateGroup stores a group administered by adminID.
func CreateGroup(t *testing.T, db *sql.DB, adminID string) *groups.Group {
	t.Helper()

	suffix := uuid.NewString()[:8]
	timeNow := time.Now().UTC()

	group := &groups.Group{
		ID:        uuid.NewString(),
		Name:      "Group " + suffix,
		Slug:      "group-" + suffix,
		AdminID:   adminID,
		CreatedAt: timeNow,
		UpdatedAt: timeNow,
	}

	err := sqlite3.NewGroupRepository(db).Insert(context.Background(), group)
	require.NoError(t, err)

	return group
}
