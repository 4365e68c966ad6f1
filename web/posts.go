package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/contents"
	"github.com/nasermirzaei89/posthub/discuss"
	"github.com/nasermirzaei89/posthub/groups"
)

const postsPerPage = 10

const defaultPageParam = "page"

// pageParam reads the 1-based page number from the query string.
func pageParam(r *http.Request) uint64 {
	return namedPageParam(r, defaultPageParam)
}

func namedPageParam(r *http.Request, name string) uint64 {
	page, err := strconv.ParseUint(r.URL.Query().Get(name), 10, 64)
	if err != nil || page == 0 {
		return 1
	}

	return page
}

type Pagination struct {
	// Param is the query parameter the page number travels in.
	Param    string
	Page     uint64
	HasPrev  bool
	HasNext  bool
	PrevPage uint64
	NextPage uint64
}

// pagination expects posts to be fetched with one extra row past the page size, and
// trims that row off.
func pagination(page uint64, posts []*contents.Post) ([]*contents.Post, Pagination) {
	hasNext := len(posts) > postsPerPage
	if hasNext {
		posts = posts[:postsPerPage]
	}

	return posts, Pagination{
		Param:    defaultPageParam,
		Page:     page,
		HasPrev:  page > 1,
		HasNext:  hasNext,
		PrevPage: page - 1,
		NextPage: page + 1,
	}
}

// pageSlice cuts one page out of items that are already fully loaded.
func pageSlice[T any](items []T, page uint64, perPage int, param string) ([]T, Pagination) {
	start := len(items)
	if page-1 < uint64(len(items)) {
		start = min(int(page-1)*perPage, len(items))
	}

	end := min(start+perPage, len(items))

	return items[start:end], Pagination{
		Param:    param,
		Page:     page,
		HasPrev:  page > 1,
		HasNext:  end < len(items),
		PrevPage: page - 1,
		NextPage: page + 1,
	}
}

func (h *Handler) HandleCategoriesPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categories, err := h.contentsSvc.ListCategories(r.Context())
		if err != nil {
			h.handleError(w, r, "failed to list categories", err)

			return
		}

		h.renderTemplate(w, r, "categories-page.gohtml", map[string]any{
			"SiteTitle":  "Categories",
			"Categories": categories,
		})
	})
}

func (h *Handler) HandleCreateCategory() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		actor, err := h.actor(r)
		if err != nil {
			h.handleError(w, r, "failed to resolve actor", err)

			return
		}

		_, err = h.contentsSvc.CreateCategory(r.Context(), actor, r.FormValue("name"))
		if err != nil {
			status := errorStatus(err)
			if status == http.StatusInternalServerError || status == http.StatusUnauthorized {
				h.handleError(w, r, "failed to create category", err)

				return
			}

			categories, listErr := h.contentsSvc.ListCategories(r.Context())
			if listErr != nil {
				h.handleError(w, r, "failed to list categories", listErr)

				return
			}

			h.renderTemplateStatus(w, r, status, "categories-page.gohtml", map[string]any{
				"SiteTitle":  "Categories",
				"Categories": categories,
				"Error":      errorMessage(err, status),
			})

			return
		}

		http.Redirect(w, r, "/categories", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) createPostPageData(r *http.Request) (map[string]any, error) {
	categories, err := h.contentsSvc.ListCategories(r.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	allGroups, err := h.groupsSvc.ListGroups(r.Context(), groups.ListGroupsParams{NameContains: ""})
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	return map[string]any{
		"SiteTitle":  "Create Post",
		"Categories": categories,
		"Groups":     allGroups,
		"GroupID":    r.URL.Query().Get("group"),
	}, nil
}

func (h *Handler) HandleCreatePostPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := h.createPostPageData(r)
		if err != nil {
			h.handleError(w, r, "failed to load create post page", err)

			return
		}

		h.renderTemplate(w, r, "create-post-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleCreatePost() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		req := contents.CreatePostRequest{
			Title:      r.FormValue("title"),
			Blurb:      r.FormValue("blurb"),
			Content:    r.FormValue("content"),
			CategoryID: r.FormValue("category_id"),
			GroupID:    r.FormValue("group_id"),
		}

		post, err := h.createPost(r, req, r.FormValue("new_category"))
		if err != nil {
			status := errorStatus(err)
			if status == http.StatusInternalServerError || status == http.StatusUnauthorized {
				h.handleError(w, r, "failed to create post", err)

				return
			}

			data, dataErr := h.createPostPageData(r)
			if dataErr != nil {
				h.handleError(w, r, "failed to load create post page", dataErr)

				return
			}

			data["Error"] = errorMessage(err, status)
			data["Form"] = req

			h.renderTemplateStatus(w, r, status, "create-post-page.gohtml", data)

			return
		}

		http.Redirect(w, r, "/p/"+post.Slug, http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

// createPost resolves the optional new category and the group membership before
// creating the post.
func (h *Handler) createPost(r *http.Request, req contents.CreatePostRequest, newCategory string) (*contents.Post, error) {
	ctx := r.Context()

	actor, err := h.actor(r)
	if err != nil {
		return nil, err
	}

	if newCategory != "" {
		category, err := h.contentsSvc.CreateCategory(ctx, actor, newCategory)
		if err != nil {
			var alreadyExistsErr *contents.CategoryAlreadyExistsError
			if !errors.As(err, &alreadyExistsErr) {
				return nil, err
			}

			category = alreadyExistsErr.Existing
		}

		req.CategoryID = category.ID
	}

	if req.GroupID != "" {
		isMember, err := h.groupsSvc.IsMember(ctx, req.GroupID, actor.UserID)
		if err != nil {
			return nil, err
		}

		if !isMember {
			return nil, &groups.PermissionDeniedError{UserID: actor.UserID, GroupID: req.GroupID, Action: "post in"}
		}
	}

	return h.contentsSvc.CreatePost(ctx, actor, req)
}

func (h *Handler) HandleViewPostPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := h.actor(r)
		if err != nil {
			h.handleError(w, r, "failed to resolve actor", err)

			return
		}

		post, err := h.contentsSvc.GetPostBySlug(ctx, r.PathValue("slug"))
		if err != nil {
			h.handleError(w, r, "failed to get post", err)

			return
		}

		cards, err := h.postCards(ctx, actor, []*contents.Post{post})
		if err != nil {
			h.handleError(w, r, "failed to load post", err)

			return
		}

		comments, err := h.commentViews(ctx, actor, discuss.PostThread(post.ID))
		if err != nil {
			h.handleError(w, r, "failed to load comments", err)

			return
		}

		var group *groups.Group

		if post.GroupID != nil {
			group, err = h.groupsSvc.GetGroup(ctx, *post.GroupID)
			if err != nil {
				h.handleError(w, r, "failed to get post group", err)

				return
			}
		}

		h.renderTemplate(w, r, "view-post-page.gohtml", map[string]any{
			"SiteTitle":  post.Title,
			"Post":       cards[0],
			"CanEdit":    actor.Owns(post.AuthorID),
			"Group":      group,
			"Comments":   comments,
			"ThreadPath": "/p/" + post.Slug,
		})
	})
}

func (h *Handler) editPostPageData(ctx context.Context, post *contents.Post, form contents.UpdatePostRequest) (map[string]any, error) {
	categories, err := h.contentsSvc.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return map[string]any{
		"SiteTitle":  "Edit " + post.Title,
		"Post":       post,
		"Categories": categories,
		"Form":       form,
	}, nil
}

// HandleEditPostPage shows the edit form to the author. Anyone else is sent back to
// the post.
func (h *Handler) HandleEditPostPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := h.actor(r)
		if err != nil {
			h.handleError(w, r, "failed to resolve actor", err)

			return
		}

		post, err := h.contentsSvc.GetPostBySlug(ctx, r.PathValue("slug"))
		if err != nil {
			h.handleError(w, r, "failed to get post", err)

			return
		}

		if !actor.Owns(post.AuthorID) {
			http.Redirect(w, r, "/p/"+post.Slug, http.StatusSeeOther)

			return
		}

		data, err := h.editPostPageData(ctx, post, contents.UpdatePostRequest{
			PostID:     post.ID,
			Title:      post.Title,
			Blurb:      post.Blurb,
			Content:    post.Content,
			CategoryID: post.CategoryID,
		})
		if err != nil {
			h.handleError(w, r, "failed to load edit post page", err)

			return
		}

		h.renderTemplate(w, r, "edit-post-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleEditPost() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		err := r.ParseForm()
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		actor, err := h.actor(r)
		if err != nil {
			h.handleError(w, r, "failed to resolve actor", err)

			return
		}

		post, err := h.contentsSvc.GetPostBySlug(ctx, r.PathValue("slug"))
		if err != nil {
			h.handleError(w, r, "failed to get post", err)

			return
		}

		req := contents.UpdatePostRequest{
			PostID:     post.ID,
			Title:      r.FormValue("title"),
			Blurb:      r.FormValue("blurb"),
			Content:    r.FormValue("content"),
			CategoryID: r.FormValue("category_id"),
		}

		_, err = h.contentsSvc.UpdatePost(ctx, actor, req)
		if err != nil {
			status := errorStatus(err)
			if status != http.StatusBadRequest && status != http.StatusNotFound {
				h.handleError(w, r, "failed to update post", err)

				return
			}

			data, dataErr := h.editPostPageData(ctx, post, req)
			if dataErr != nil {
				h.handleError(w, r, "failed to load edit post page", dataErr)

				return
			}

			data["Error"] = errorMessage(err, status)

			h.renderTemplateStatus(w, r, status, "edit-post-page.gohtml", data)

			return
		}

		http.Redirect(w, r, "/p/"+post.Slug, http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleDeletePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.actor(r)
		if err != nil {
			h.writeJSONError(w, r, "failed to resolve actor", err)

			return
		}

		err = auth.RequireUser(actor, "delete a post")
		if err != nil {
			h.writeJSONError(w, r, "failed to delete post", err)

			return
		}

		post, err := h.contentsSvc.GetPostBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			h.writeJSONError(w, r, "failed to get post", err)

			return
		}

		err = h.contentsSvc.DeletePost(r.Context(), actor, post.ID)
		if err != nil {
			h.writeJSONError(w, r, "failed to delete post", err)

			return
		}

		h.writeJSON(w, r, http.StatusOK, jsonResult{Success: true, Error: ""})
	})
}
