package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/posthub/auth"
)

type Service struct {
	voteRepo VoteRepository
}

func NewService(voteRepo VoteRepository) *Service {
	return &Service{voteRepo: voteRepo}
}

// ToggleVote records actor's vote on target. With no existing vote it creates one,
// repeating the same direction retracts it and the opposite direction flips it.
// The whole decision runs in one transaction.
func (svc *Service) ToggleVote(ctx context.Context, actor auth.Actor, target Target, isUpvote bool) (VoteState, error) {
	err := auth.RequireUser(actor, "vote")
	if err != nil {
		return "", err
	}

	err = target.validate()
	if err != nil {
		return "", err
	}

	var state VoteState

	err = svc.voteRepo.Atomically(ctx, func(repo VoteRepository) error {
		exists, err := repo.TargetExists(ctx, target)
		if err != nil {
			return fmt.Errorf("failed to check target: %w", err)
		}

		if !exists {
			return &TargetNotFoundError{Target: target}
		}

		existing, err := repo.FindByUserTarget(ctx, actor.UserID, target)
		if err != nil {
			var notFoundErr *VoteNotFoundError
			if !errors.As(err, &notFoundErr) {
				return fmt.Errorf("failed to find existing vote: %w", err)
			}
		}

		timeNow := time.Now().UTC()

		switch {
		case existing == nil:
			err = repo.Insert(ctx, &Vote{
				ID:        uuid.Must(uuid.NewV7()).String(),
				UserID:    actor.UserID,
				Target:    target,
				IsUpvote:  isUpvote,
				CreatedAt: timeNow,
				UpdatedAt: timeNow,
			})
			if err != nil {
				return fmt.Errorf("failed to insert vote: %w", err)
			}

			state = VoteStateCreated
		case existing.IsUpvote == isUpvote:
			err = repo.Delete(ctx, existing.ID)
			if err != nil {
				return fmt.Errorf("failed to delete vote: %w", err)
			}

			state = VoteStateRetracted
		default:
			err = repo.UpdateDirection(ctx, existing.ID, isUpvote, timeNow)
			if err != nil {
				return fmt.Errorf("failed to update vote: %w", err)
			}

			state = VoteStateFlipped
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return state, nil
}

func (svc *Service) TotalUpvotes(ctx context.Context, target Target) (int, error) {
	return svc.count(ctx, target, true)
}

func (svc *Service) TotalDownvotes(ctx context.Context, target Target) (int, error) {
	return svc.count(ctx, target, false)
}

func (svc *Service) count(ctx context.Context, target Target, isUpvote bool) (int, error) {
	err := target.validate()
	if err != nil {
		return 0, err
	}

	count, err := svc.voteRepo.CountByDirection(ctx, target, isUpvote)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}

	return count, nil
}

// GetTally counts the votes on target. When userID is set the tally also carries that
// user's current vote.
func (svc *Service) GetTally(ctx context.Context, target Target, userID string) (*Tally, error) {
	tallies, err := svc.Tallies(ctx, target.Type, []string{target.ID}, userID)
	if err != nil {
		return nil, err
	}

	return tallies[target.ID], nil
}

// Tallies counts the votes on several targets of one type at once, keyed by target id.
// Targets without votes get a zero tally.
func (svc *Service) Tallies(ctx context.Context, targetType TargetType, targetIDs []string, userID string) (map[string]*Tally, error) {
	if !targetType.IsValid() {
		return nil, &InvalidVoteError{Reason: fmt.Sprintf("invalid target type %q", targetType)}
	}

	tallies := make(map[string]*Tally, len(targetIDs))
	if len(targetIDs) == 0 {
		return tallies, nil
	}

	counts, err := svc.voteRepo.CountByTargets(ctx, targetType, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	var userVotes map[string]bool

	if userID != "" {
		userVotes, err = svc.voteRepo.ListByUserTargets(ctx, userID, targetType, targetIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to list user votes: %w", err)
		}
	}

	for _, targetID := range targetIDs {
		tally := &Tally{
			Target:    Target{Type: targetType, ID: targetID},
			Upvotes:   counts[targetID].Upvotes,
			Downvotes: counts[targetID].Downvotes,
			UserVote:  nil,
		}

		if isUpvote, ok := userVotes[targetID]; ok {
			tally.UserVote = &isUpvote
		}

		tallies[targetID] = tally
	}

	return tallies, nil
}
