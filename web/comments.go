package web

import (
	"net/http"
	"strconv"

	"github.com/nasermirzaei89/posthub/discuss"
)

// createComment adds the submitted comment to thread and sends the browser back to
// threadPath, anchored at the new comment.
func (h *Handler) createComment(w http.ResponseWriter, r *http.Request, thread discuss.ThreadRef, threadPath string) {
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

	comment, err := h.discussSvc.CreateComment(r.Context(), actor, discuss.CreateCommentRequest{
		Thread:   thread,
		ParentID: r.FormValue("parent_id"),
		Content:  r.FormValue("content"),
		ImageURL: r.FormValue("image_url"),
	})
	if err != nil {
		h.handleError(w, r, "failed to create comment", err)

		return
	}

	http.Redirect(w, r, threadPath+"#comment-"+comment.ID, http.StatusSeeOther)
}

func (h *Handler) HandlePostComment() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		post, err := h.contentsSvc.GetPostBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			h.handleError(w, r, "failed to get post", err)

			return
		}

		h.createComment(w, r, discuss.PostThread(post.ID), "/p/"+post.Slug)
	})

	return h.AuthenticatedOnly(hf)
}

type editCommentResult struct {
	Success bool    `json:"success"`
	Image   *string `json:"image"`
}

func (h *Handler) HandleEditComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			h.writeJSON(w, r, http.StatusBadRequest, jsonResult{Success: false, Error: "invalid form"})

			return
		}

		actor, err := h.actor(r)
		if err != nil {
			h.writeJSONError(w, r, "failed to resolve actor", err)

			return
		}

		req := discuss.EditCommentRequest{
			CommentID:   r.PathValue("commentId"),
			Content:     nil,
			ImageURL:    nil,
			RemoveImage: r.FormValue("remove_image") == "true",
		}

		if r.Form.Has("content") {
			content := r.FormValue("content")
			req.Content = &content
		}

		if imageURL := r.FormValue("image_url"); imageURL != "" {
			req.ImageURL = &imageURL
		}

		comment, err := h.discussSvc.EditComment(r.Context(), actor, req)
		if err != nil {
			h.writeJSONError(w, r, "failed to edit comment", err)

			return
		}

		h.writeJSON(w, r, http.StatusOK, editCommentResult{Success: true, Image: comment.ImageURL})
	})
}

func (h *Handler) HandleDeleteComment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.actor(r)
		if err != nil {
			h.writeJSONError(w, r, "failed to resolve actor", err)

			return
		}

		err = h.discussSvc.DeleteComment(r.Context(), actor, r.PathValue("commentId"))
		if err != nil {
			h.writeJSONError(w, r, "failed to delete comment", err)

			return
		}

		h.writeJSON(w, r, http.StatusOK, jsonResult{Success: true, Error: ""})
	})
}

// HandleCommentVisibility hides or shows a comment; the form field "active" carries
// the new state.
func (h *Handler) HandleCommentVisibility() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			h.writeJSON(w, r, http.StatusBadRequest, jsonResult{Success: false, Error: "invalid form"})

			return
		}

		active, err := strconv.ParseBool(r.FormValue("active"))
		if err != nil {
			h.writeJSON(w, r, http.StatusBadRequest, jsonResult{Success: false, Error: "active must be true or false"})

			return
		}

		actor, err := h.actor(r)
		if err != nil {
			h.writeJSONError(w, r, "failed to resolve actor", err)

			return
		}

		_, err = h.discussSvc.SetCommentActive(r.Context(), actor, r.PathValue("commentId"), active)
		if err != nil {
			h.writeJSONError(w, r, "failed to change comment visibility", err)

			return
		}

		h.writeJSON(w, r, http.StatusOK, jsonResult{Success: true, Error: ""})
	})
}
