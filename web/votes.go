package web

import (
	"encoding/json"
	"net/http"

	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/votes"
)

type voteRequest struct {
	PostID    string `json:"post_id"`
	CommentID string `json:"comment_id"`
	IsUpvote  *bool  `json:"is_upvote"`
}

// target picks the voted object. post_id wins when both ids are sent.
func (req voteRequest) target() (votes.Target, bool) {
	switch {
	case req.PostID != "":
		return votes.PostTarget(req.PostID), true
	case req.CommentID != "":
		return votes.CommentTarget(req.CommentID), true
	default:
		return votes.Target{Type: "", ID: ""}, false
	}
}

type voteResult struct {
	Success   bool            `json:"success"`
	State     votes.VoteState `json:"state"`
	Upvotes   int             `json:"upvotes"`
	Downvotes int             `json:"downvotes"`
}

const maxVoteBodyBytes = 4 << 10

// HandleVote toggles the caller's vote on a post or comment.
//
// Voting the same direction twice retracts the vote; voting the other direction
// flips it.
func (h *Handler) HandleVote() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := h.actor(r)
		if err != nil {
			h.writeJSONError(w, r, "failed to resolve actor", err)

			return
		}

		err = auth.RequireUser(actor, "vote")
		if err != nil {
			h.writeJSONError(w, r, "failed to vote", err)

			return
		}

		if !h.voteLimiter.Allow(actor.UserID) {
			h.writeJSON(w, r, http.StatusTooManyRequests, jsonResult{Success: false, Error: "too many votes, slow down"})

			return
		}

		var req voteRequest

		err = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxVoteBodyBytes)).Decode(&req)
		if err != nil {
			h.writeJSON(w, r, http.StatusBadRequest, jsonResult{Success: false, Error: "invalid request body"})

			return
		}

		target, ok := req.target()
		if !ok {
			h.writeJSON(w, r, http.StatusBadRequest, jsonResult{Success: false, Error: "post_id or comment_id is required"})

			return
		}

		if req.IsUpvote == nil {
			h.writeJSON(w, r, http.StatusBadRequest, jsonResult{Success: false, Error: "is_upvote is required"})

			return
		}

		state, err := h.votesSvc.ToggleVote(ctx, actor, target, *req.IsUpvote)
		if err != nil {
			h.writeJSONError(w, r, "failed to toggle vote", err)

			return
		}

		tally, err := h.votesSvc.GetTally(ctx, target, "")
		if err != nil {
			h.writeJSONError(w, r, "failed to count votes", err)

			return
		}

		h.writeJSON(w, r, http.StatusOK, voteResult{
			Success:   true,
			State:     state,
			Upvotes:   tally.Upvotes,
			Downvotes: tally.Downvotes,
		})
	})
}
