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

type MemberView struct {
	*groups.Member

	User      *auth.User
	IsAdmin   bool
	CanRemove bool
}

func (h *Handler) HandleGroupsPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")

		list, err := h.groupsSvc.ListGroups(r.Context(), groups.ListGroupsParams{NameContains: query})
		if err != nil {
			h.handleError(w, r, "failed to list groups", err)

			return
		}

		h.renderTemplate(w, r, "groups-page.gohtml", map[string]any{
			"SiteTitle": "Groups",
			"Groups":    list,
			"Query":     query,
		})
	})
}

func (h *Handler) HandleCreateGroupPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderTemplate(w, r, "create-group-page.gohtml", map[string]any{"SiteTitle": "Create Group"})
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleCreateGroup() http.Handler {
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

		req := groups.CreateGroupRequest{
			Name:         r.FormValue("name"),
			Description:  r.FormValue("description"),
			AdminMessage: r.FormValue("admin_message"),
		}

		group, err := h.groupsSvc.CreateGroup(r.Context(), actor, req)
		if err != nil {
			status := errorStatus(err)
			if status == http.StatusInternalServerError || status == http.StatusUnauthorized {
				h.handleError(w, r, "failed to create group", err)

				return
			}

			h.renderTemplateStatus(w, r, status, "create-group-page.gohtml", map[string]any{
				"SiteTitle": "Create Group",
				"Error":     errorMessage(err, status),
				"Form":      req,
			})

			return
		}

		http.Redirect(w, r, "/g/"+group.Slug, http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) memberViews(ctx context.Context, actor auth.Actor, group *groups.Group) ([]*MemberView, error) {
	members, err := h.groupsSvc.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	users := h.newUserCache()
	views := make([]*MemberView, 0, len(members))

	for _, member := range members {
		user, err := users.get(ctx, member.UserID)
		if err != nil {
			return nil, err
		}

		isAdmin := member.UserID == group.AdminID

		views = append(views, &MemberView{
			Member:    member,
			User:      user,
			IsAdmin:   isAdmin,
			CanRemove: actor.Owns(group.AdminID) && !isAdmin,
		})
	}

	return views, nil
}

func (h *Handler) HandleViewGroupPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := h.actor(r)
		if err != nil {
			h.handleError(w, r, "failed to resolve actor", err)

			return
		}

		group, err := h.groupsSvc.GetGroupBySlug(ctx, r.PathValue("slug"))
		if err != nil {
			h.handleError(w, r, "failed to get group", err)

			return
		}

		page := pageParam(r)

		posts, err := h.contentsSvc.ListPosts(ctx, contents.ListPostsParams{
			Status:     nil,
			CategoryID: "",
			GroupID:    group.ID,
			Limit:      postsPerPage + 1,
			Offset:     (page - 1) * postsPerPage,
		})
		if err != nil {
			h.handleError(w, r, "failed to list group posts", err)

			return
		}

		posts, pages := pagination(page, posts)

		cards, err := h.postCards(ctx, actor, posts)
		if err != nil {
			h.handleError(w, r, "failed to load group posts", err)

			return
		}

		comments, err := h.commentViews(ctx, actor, discuss.GroupThread(group.ID))
		if err != nil {
			h.handleError(w, r, "failed to load group comments", err)

			return
		}

		members, err := h.memberViews(ctx, actor, group)
		if err != nil {
			h.handleError(w, r, "failed to load group members", err)

			return
		}

		isMember, err := h.groupsSvc.IsMember(ctx, group.ID, actor.UserID)
		if err != nil {
			h.handleError(w, r, "failed to check membership", err)

			return
		}

		h.renderTemplate(w, r, "group-page.gohtml", map[string]any{
			"SiteTitle":  group.Name,
			"Group":      group,
			"Posts":      cards,
			"Pagination": pages,
			"Comments":   comments,
			"Members":    members,
			"IsMember":   isMember,
			"IsAdmin":    actor.Owns(group.AdminID),
			"Joined":     r.URL.Query().Get("joined"),
			"ThreadPath": "/g/" + group.Slug,
		})
	})
}

func (h *Handler) HandleJoinGroup() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.actor(r)
		if err != nil {
			h.handleError(w, r, "failed to resolve actor", err)

			return
		}

		group, err := h.groupsSvc.GetGroupBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			h.handleError(w, r, "failed to get group", err)

			return
		}

		alreadyMember, err := h.groupsSvc.JoinGroup(r.Context(), actor, group.ID)
		if err != nil {
			h.handleError(w, r, "failed to join group", err)

			return
		}

		joined := "new"
		if alreadyMember {
			joined = "already"
		}

		http.Redirect(w, r, "/g/"+group.Slug+"?joined="+joined, http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleGroupComment() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		group, err := h.groupsSvc.GetGroupBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			h.handleError(w, r, "failed to get group", err)

			return
		}

		h.createComment(w, r, discuss.GroupThread(group.ID), "/g/"+group.Slug)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleUpdateGroup() http.Handler {
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

		group, err := h.groupsSvc.GetGroupBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			h.handleError(w, r, "failed to get group", err)

			return
		}

		_, err = h.groupsSvc.UpdateGroup(r.Context(), actor, groups.UpdateGroupRequest{
			GroupID:      group.ID,
			Description:  r.FormValue("description"),
			AdminMessage: r.FormValue("admin_message"),
		})
		if err != nil {
			h.handleError(w, r, "failed to update group", err)

			return
		}

		http.Redirect(w, r, "/g/"+group.Slug, http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleRemoveMember() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.actor(r)
		if err != nil {
			h.handleError(w, r, "failed to resolve actor", err)

			return
		}

		group, err := h.groupsSvc.GetGroupBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			h.handleError(w, r, "failed to get group", err)

			return
		}

		err = h.groupsSvc.RemoveMember(r.Context(), actor, group.ID, r.PathValue("userId"))
		if err != nil {
			h.handleError(w, r, "failed to remove member", err)

			return
		}

		http.Redirect(w, r, "/g/"+group.Slug, http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}
