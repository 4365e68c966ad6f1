package contents_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/contents"
	"github.com/nasermirzaei89/posthub/db/sqlite3"
	"github.com/nasermirzaei89/posthub/db/sqlite3/sqlite3test"
	"github.com/nasermirzaei89/posthub/discuss"
	"github.com/nasermirzaei89/posthub/votes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*contents.Service, *sql.DB) {
	t.Helper()

	db := sqlite3test.New(t)

	return contents.NewService(sqlite3.NewPostRepository(db), sqlite3.NewCategoryRepository(db)), db
}

func newActor(t *testing.T, db *sql.DB, superuser bool) auth.Actor {
	t.Helper()

	return auth.UserActor(sqlite3test.CreateUser(t, db, superuser))
}

func TestCreateCategory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, db := newService(t)
	actor := newActor(t, db, false)

	category, err := svc.CreateCategory(ctx, actor, "  Science Fiction ")
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", category.Name)
	assert.Equal(t, "science-fiction", category.Slug)

	_, err = svc.CreateCategory(ctx, actor, "science fiction")

	var alreadyExistsErr *contents.CategoryAlreadyExistsError
	require.ErrorAs(t, err, &alreadyExistsErr)
	assert.Equal(t, category.ID, alreadyExistsErr.Existing.ID)

	_, err = svc.CreateCategory(ctx, actor, "")

	var invalidErr *contents.InvalidPostError
	require.ErrorAs(t, err, &invalidErr)

	_, err = svc.CreateCategory(ctx, auth.AnonymousActor, "Poetry")

	var authErr *auth.AuthenticationRequiredError
	require.ErrorAs(t, err, &authErr)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
}

func TestCreatePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("colliding titles get numbered slugs", func(t *testing.T) {
		t.Parallel()

		svc, db := newService(t)
		actor := newActor(t, db, false)

		category, err := svc.CreateCategory(ctx, actor, "General")
		require.NoError(t, err)

		var slugs []string

		for range 3 {
			post, err := svc.CreatePost(ctx, actor, contents.CreatePostRequest{
				Title:      "Same Title",
				Blurb:      "",
				Content:    "body",
				CategoryID: category.ID,
				GroupID:    "",
			})
			require.NoError(t, err)

			slugs = append(slugs, post.Slug)
		}

		assert.Equal(t, []string{"same-title", "same-title-2", "same-title-3"}, slugs)

		post, err := svc.GetPostBySlug(ctx, "same-title-2")
		require.NoError(t, err)
		assert.Equal(t, contents.PostStatusApproved, post.Status)
		assert.Nil(t, post.GroupID)
	})

	t.Run("title without letters falls back", func(t *testing.T) {
		t.Parallel()

		svc, db := newService(t)
		actor := newActor(t, db, false)

		category, err := svc.CreateCategory(ctx, actor, "General")
		require.NoError(t, err)

		post, err := svc.CreatePost(ctx, actor, contents.CreatePostRequest{
			Title:      "???",
			Content:    "body",
			CategoryID: category.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "post", post.Slug)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()

		svc, db := newService(t)
		actor := newActor(t, db, false)

		_, err := svc.CreatePost(ctx, actor, contents.CreatePostRequest{Title: "", Content: "body", CategoryID: "c"})

		var invalidErr *contents.InvalidPostError
		require.ErrorAs(t, err, &invalidErr)

		_, err = svc.CreatePost(ctx, actor, contents.CreatePostRequest{Title: "t", Content: "body", CategoryID: "missing"})

		var notFoundErr *contents.CategoryNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}

func TestListPosts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, db := newService(t)
	actor := newActor(t, db, false)

	first := sqlite3test.CreatePost(t, db, actor.UserID)
	second := sqlite3test.CreatePost(t, db, actor.UserID)

	posts, err := svc.ListPosts(ctx, contents.ListPostsParams{})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID, "newest first")

	posts, err = svc.ListPosts(ctx, contents.ListPostsParams{CategoryID: first.CategoryID})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, first.ID, posts[0].ID)

	posts, err = svc.ListPosts(ctx, contents.ListPostsParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, first.ID, posts[0].ID)

	group := sqlite3test.CreateGroup(t, db, actor.UserID)

	category, err := svc.CreateCategory(ctx, actor, "Group stuff")
	require.NoError(t, err)

	groupPost, err := svc.CreatePost(ctx, actor, contents.CreatePostRequest{
		Title:      "In the group",
		Content:    "body",
		CategoryID: category.ID,
		GroupID:    group.ID,
	})
	require.NoError(t, err)

	posts, err = svc.ListPosts(ctx, contents.ListPostsParams{GroupID: group.ID})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, groupPost.ID, posts[0].ID)

	stranger := newActor(t, db, false)
	sqlite3test.CreatePost(t, db, stranger.UserID)

	posts, err = svc.ListPosts(ctx, contents.ListPostsParams{AuthorID: actor.UserID})
	require.NoError(t, err)
	assert.Len(t, posts, 3)

	for _, post := range posts {
		assert.Equal(t, actor.UserID, post.AuthorID)
	}
}

func TestUpdatePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, db := newService(t)
	author := newActor(t, db, false)
	stranger := newActor(t, db, false)
	moderator := newActor(t, db, true)

	post := sqlite3test.CreatePost(t, db, author.UserID)

	category, err := svc.CreateCategory(ctx, author, "Updates")
	require.NoError(t, err)

	req := contents.UpdatePostRequest{
		PostID:     post.ID,
		Title:      "  A Brand New Title ",
		Blurb:      "short",
		Content:    "new body",
		CategoryID: category.ID,
	}

	t.Run("only the author may edit", func(t *testing.T) {
		for _, actor := range []auth.Actor{stranger, moderator} {
			_, err := svc.UpdatePost(ctx, actor, req)

			var permissionErr *contents.PermissionDeniedError
			require.ErrorAs(t, err, &permissionErr)
			assert.Equal(t, "edit", permissionErr.Action)
		}

		_, err := svc.UpdatePost(ctx, auth.AnonymousActor, req)

		var authErr *auth.AuthenticationRequiredError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("validation", func(t *testing.T) {
		invalid := req
		invalid.Content = " "

		_, err := svc.UpdatePost(ctx, author, invalid)

		var invalidErr *contents.InvalidPostError
		require.ErrorAs(t, err, &invalidErr)

		missingCategory := req
		missingCategory.CategoryID = "missing"

		_, err = svc.UpdatePost(ctx, author, missingCategory)

		var notFoundErr *contents.CategoryNotFoundError
		require.ErrorAs(t, err, &notFoundErr)

		missingPost := req
		missingPost.PostID = "missing"

		_, err = svc.UpdatePost(ctx, author, missingPost)

		var postNotFoundErr *contents.PostNotFoundError
		require.ErrorAs(t, err, &postNotFoundErr)
	})

	t.Run("author edits and the slug stays", func(t *testing.T) {
		updated, err := svc.UpdatePost(ctx, author, req)
		require.NoError(t, err)
		assert.Equal(t, "A Brand New Title", updated.Title)
		assert.Equal(t, post.Slug, updated.Slug)

		got, err := svc.GetPostBySlug(ctx, post.Slug)
		require.NoError(t, err)
		assert.Equal(t, "A Brand New Title", got.Title)
		assert.Equal(t, "short", got.Blurb)
		assert.Equal(t, "new body", got.Content)
		assert.Equal(t, category.ID, got.CategoryID)
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	})
}

func TestDeletePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, db := newService(t)
	author := newActor(t, db, false)
	other := newActor(t, db, false)
	moderator := newActor(t, db, true)

	discussSvc := discuss.NewService(sqlite3.NewCommentRepository(db), sqlite3.NewThreadRepository(db))
	votesSvc := votes.NewService(sqlite3.NewVoteRepository(db))

	post := sqlite3test.CreatePost(t, db, author.UserID)

	comment, err := discussSvc.CreateComment(ctx, other, discuss.CreateCommentRequest{
		Thread:  discuss.PostThread(post.ID),
		Content: "nice",
	})
	require.NoError(t, err)

	_, err = votesSvc.ToggleVote(ctx, other, votes.CommentTarget(comment.ID), true)
	require.NoError(t, err)

	err = svc.DeletePost(ctx, other, post.ID)

	var permissionErr *contents.PermissionDeniedError
	require.ErrorAs(t, err, &permissionErr)

	err = svc.DeletePost(ctx, moderator, post.ID)
	require.NoError(t, err)

	_, err = svc.GetPost(ctx, post.ID)

	var notFoundErr *contents.PostNotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	_, err = discussSvc.GetComment(ctx, comment.ID)

	var commentNotFoundErr *discuss.CommentNotFoundError
	require.ErrorAs(t, err, &commentNotFoundErr)

	var voteRows int

	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM votes").Scan(&voteRows)
	require.NoError(t, err)
	assert.Zero(t, voteRows)
}
