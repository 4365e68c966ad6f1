package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/contents"
	"github.com/nasermirzaei89/posthub/discuss"
	"github.com/nasermirzaei89/posthub/groups"
)

const profileItemsPerPage = 5

// grade turns an activity count into a badge. thresholds are the upper bounds of
// Newbie, Regular and Veteran.
func grade(count int, thresholds [3]int) string {
	switch {
	case count < thresholds[0]:
		return "Newbie"
	case count < thresholds[1]:
		return "Regular"
	case count < thresholds[2]:
		return "Veteran"
	default:
		return "Elite"
	}
}

var (
	postGradeThresholds    = [3]int{1, 10, 20}
	commentGradeThresholds = [3]int{5, 15, 35}
)

type ProfileStats struct {
	PostCount    int
	CommentCount int
	PostGrade    string
	CommentGrade string
}

// ProfileComment is a comment shown outside its thread, with a link back to it.
type ProfileComment struct {
	*discuss.Comment

	ThreadTitle string
	ThreadPath  string
}

func (h *Handler) profileComments(ctx context.Context, actor auth.Actor, userID string) ([]*ProfileComment, error) {
	comments, err := h.discussSvc.ListUserComments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user comments: %w", err)
	}

	posts := make(map[string]*contents.Post)
	groupsByID := make(map[string]*groups.Group)
	result := make([]*ProfileComment, 0, len(comments))

	for _, comment := range comments {
		if !comment.Active && !actor.CanModerate(comment.AuthorID) {
			continue
		}

		view := &ProfileComment{Comment: comment, ThreadTitle: "", ThreadPath: ""}

		thread := comment.Thread()

		switch thread.Kind {
		case discuss.ThreadKindPost:
			post, ok := posts[thread.ID]
			if !ok {
				post, err = h.contentsSvc.GetPost(ctx, thread.ID)
				if isNotFoundErr(err) {
					continue
				}

				if err != nil {
					return nil, fmt.Errorf("failed to get post of comment: %w", err)
				}

				posts[thread.ID] = post
			}

			view.ThreadTitle = post.Title
			view.ThreadPath = "/p/" + post.Slug
		case discuss.ThreadKindGroup:
			group, ok := groupsByID[thread.ID]
			if !ok {
				group, err = h.groupsSvc.GetGroup(ctx, thread.ID)
				if isNotFoundErr(err) {
					continue
				}

				if err != nil {
					return nil, fmt.Errorf("failed to get group of comment: %w", err)
				}

				groupsByID[thread.ID] = group
			}

			view.ThreadTitle = group.Name
			view.ThreadPath = "/g/" + group.Slug
		}

		result = append(result, view)
	}

	return result, nil
}

// HandleProfilePage shows a user's profile with their posts, comments and groups.
// Private profiles show only the username to everyone but their owner.
func (h *Handler) HandleProfilePage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := h.actor(r)
		if err != nil {
			h.handleError(w, r, "failed to resolve actor", err)

			return
		}

		user, err := h.authSvc.GetUserByUsername(ctx, r.PathValue("username"))
		if err != nil {
			h.handleError(w, r, "failed to get user", err)

			return
		}

		profile, err := h.authSvc.GetProfile(ctx, user.ID)
		if err != nil {
			h.handleError(w, r, "failed to get profile", err)

			return
		}

		data := map[string]any{
			"SiteTitle":   user.Username,
			"ProfileUser": user,
			"Profile":     profile,
			"IsOwner":     actor.Owns(user.ID),
			"Private":     !profile.VisibleTo(actor),
		}

		if !profile.VisibleTo(actor) {
			h.renderTemplate(w, r, "profile-page.gohtml", data)

			return
		}

		posts, err := h.contentsSvc.ListPosts(ctx, contents.ListPostsParams{AuthorID: user.ID})
		if err != nil {
			h.handleError(w, r, "failed to list user posts", err)

			return
		}

		comments, err := h.profileComments(ctx, actor, user.ID)
		if err != nil {
			h.handleError(w, r, "failed to list user comments", err)

			return
		}

		userGroups, err := h.groupsSvc.ListGroups(ctx, groups.ListGroupsParams{NameContains: "", MemberID: user.ID})
		if err != nil {
			h.handleError(w, r, "failed to list user groups", err)

			return
		}

		pagePosts, postPages := pageSlice(posts, namedPageParam(r, "post_page"), profileItemsPerPage, "post_page")

		cards, err := h.postCards(ctx, actor, pagePosts)
		if err != nil {
			h.handleError(w, r, "failed to load posts", err)

			return
		}

		pageComments, commentPages := pageSlice(
			comments, namedPageParam(r, "comment_page"), profileItemsPerPage, "comment_page",
		)

		data["Posts"] = cards
		data["PostPagination"] = postPages
		data["Comments"] = pageComments
		data["CommentPagination"] = commentPages
		data["Groups"] = userGroups
		data["Stats"] = ProfileStats{
			PostCount:    len(posts),
			CommentCount: len(comments),
			PostGrade:    grade(len(posts), postGradeThresholds),
			CommentGrade: grade(len(comments), commentGradeThresholds),
		}

		h.renderTemplate(w, r, "profile-page.gohtml", data)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleEditProfilePage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.actor(r)
		if err != nil {
			h.handleError(w, r, "failed to resolve actor", err)

			return
		}

		profile, err := h.authSvc.GetProfile(r.Context(), actor.UserID)
		if err != nil {
			h.handleError(w, r, "failed to get profile", err)

			return
		}

		h.renderTemplate(w, r, "edit-profile-page.gohtml", map[string]any{
			"SiteTitle": "Edit profile",
			"Form": auth.UpdateProfileRequest{
				Bio:       profile.Bio,
				Location:  profile.Location,
				ImageURL:  profile.ImageURL,
				IsPrivate: profile.IsPrivate,
			},
		})
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleEditProfile() http.Handler {
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

		req := auth.UpdateProfileRequest{
			Bio:       r.FormValue("bio"),
			Location:  r.FormValue("location"),
			ImageURL:  r.FormValue("image_url"),
			IsPrivate: r.FormValue("is_private") == "true",
		}

		_, err = h.authSvc.UpdateProfile(r.Context(), actor, req)
		if err != nil {
			status := errorStatus(err)
			if status != http.StatusBadRequest {
				h.handleError(w, r, "failed to update profile", err)

				return
			}

			h.renderTemplateStatus(w, r, status, "edit-profile-page.gohtml", map[string]any{
				"SiteTitle": "Edit profile",
				"Form":      req,
				"Error":     errorMessage(err, status),
			})

			return
		}

		user, err := h.authSvc.GetUser(r.Context(), actor.UserID)
		if err != nil {
			h.handleError(w, r, "failed to get user", err)

			return
		}

		http.Redirect(w, r, "/u/"+user.Username, http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}
