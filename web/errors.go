package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/posthub/auth"
	"github.com/nasermirzaei89/posthub/contents"
	"github.com/nasermirzaei89/posthub/discuss"
	"github.com/nasermirzaei89/posthub/groups"
	"github.com/nasermirzaei89/posthub/votes"
)

func isErr[T error](err error) bool {
	var target T

	return errors.As(err, &target)
}

func isValidationErr(err error) bool {
	return isErr[*auth.InvalidCredentialsInputError](err) ||
		isErr[*auth.InvalidProfileError](err) ||
		isErr[*contents.InvalidPostError](err) ||
		isErr[*discuss.InvalidCommentError](err) ||
		isErr[*groups.InvalidGroupError](err) ||
		isErr[*votes.InvalidVoteError](err)
}

func isPermissionErr(err error) bool {
	return isErr[*contents.PermissionDeniedError](err) ||
		isErr[*discuss.PermissionDeniedError](err) ||
		isErr[*groups.PermissionDeniedError](err)
}

func isNotFoundErr(err error) bool {
	return isErr[*auth.UserNotFoundError](err) ||
		isErr[*auth.UserByUsernameNotFoundError](err) ||
		isErr[*auth.ProfileNotFoundError](err) ||
		isErr[*contents.PostNotFoundError](err) ||
		isErr[*contents.CategoryNotFoundError](err) ||
		isErr[*discuss.CommentNotFoundError](err) ||
		isErr[*discuss.ThreadNotFoundError](err) ||
		isErr[*groups.GroupNotFoundError](err) ||
		isErr[*groups.MemberNotFoundError](err) ||
		isErr[*votes.TargetNotFoundError](err)
}

func isConflictErr(err error) bool {
	return isErr[*auth.UserAlreadyExistsError](err) ||
		isErr[*contents.CategoryAlreadyExistsError](err) ||
		isErr[*contents.PostSlugTakenError](err) ||
		isErr[*groups.GroupAlreadyExistsError](err) ||
		isErr[*groups.GroupLimitReachedError](err) ||
		isErr[*votes.AlreadyVotedError](err)
}

// errorStatus maps a domain error to the HTTP status reported to the client.
func errorStatus(err error) int {
	switch {
	case isValidationErr(err):
		return http.StatusBadRequest
	case isErr[*auth.AuthenticationRequiredError](err):
		return http.StatusUnauthorized
	case isPermissionErr(err):
		return http.StatusForbidden
	case isNotFoundErr(err):
		return http.StatusNotFound
	case isConflictErr(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the text shown to the client. Internal errors are never exposed.
func errorMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return http.StatusText(status)
	}

	return unwrapDomainErr(err).Error()
}

// unwrapDomainErr drops the "failed to ..." wrapping added on the way up.
func unwrapDomainErr(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}

		err = next
	}
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), msg, "error", err)
	}

	if status == http.StatusUnauthorized {
		http.Redirect(w, r, loginURL(r), http.StatusSeeOther)

		return
	}

	http.Error(w, errorMessage(err, status), status)
}
