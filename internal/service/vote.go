package service

import (
	"context"
	"fmt"

	"go-community-app/internal/apperr"
	"go-community-app/internal/auth"
	"go-community-app/internal/data"
	"go-community-app/internal/lock"
	"go-community-app/internal/logger"
)

// TallyCache stores computed vote counts.
type TallyCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, key string) error
}

// Tally is the vote summary of a post as seen by one user.
type Tally struct {
	PostID   int64 `json:"postId"`
	Score    int   `json:"score"`
	Up       int   `json:"up"`
	Down     int   `json:"down"`
	UserVote int   `json:"userVote"`
}

// VoteService applies the toggle-vote rule.
type VoteService struct {
	gate   *auth.Gate
	tx     data.Transactor
	posts  PostStore
	votes  VoteStore
	locker lock.Locker
	cache  TallyCache
	log    logger.Logger
}

// NewVoteService creates a new VoteService. cache may be nil.
func NewVoteService(gate *auth.Gate, st Stores, locker lock.Locker, cache TallyCache, log logger.Logger) *VoteService {
	return &VoteService{
		gate:   gate,
		tx:     st.Tx,
		posts:  st.Posts,
		votes:  st.Votes,
		locker: locker,
		cache:  cache,
		log:    log,
	}
}

// nextVote returns the vote value that should exist after a user with
// existing vote (0 for none) requests value. Zero means no vote.
func nextVote(existing, requested int) int {
	if existing == requested {
		return 0
	}
	return requested
}

func tallyKey(postID int64) string {
	return fmt.Sprintf("tally:%d", postID)
}

// CastVote toggles or switches the actor's vote on a post and returns the
// new tally. Concurrent calls for the same user and post are serialized.
func (s *VoteService) CastVote(ctx context.Context, actor *auth.Actor, postID int64, value int) (*Tally, error) {
	const op = "vote.CastVote"
	if err := require(s.gate, op, actor, auth.PermVotePosts, nil); err != nil {
		return nil, err
	}
	if value != 1 && value != -1 {
		return nil, apperr.E(apperr.InvalidArgument, op, "vote value must be +1 or -1")
	}

	release, err := s.locker.Acquire(ctx, lock.Key("vote", postID, actor.ID))
	if err != nil {
		return nil, apperr.Internalf(op, err)
	}
	defer release()

	tally := &Tally{PostID: postID}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.posts.GetByID(ctx, postID); err != nil {
			return lookup(op, "post", err)
		}
		existing, err := s.votes.ListFor(ctx, postID, actor.ID)
		if err != nil {
			return apperr.Internalf(op, err)
		}
		current := 0
		if n := len(existing); n > 0 {
			current = existing[n-1].Value
			if n > 1 {
				s.log.With(map[string]interface{}{"post_id": postID, "user_id": actor.ID, "rows": n}).
					Warn("collapsing duplicate votes")
			}
		}

		next := nextVote(current, value)
		if err := s.votes.DeleteFor(ctx, postID, actor.ID); err != nil {
			return apperr.Internalf(op, err)
		}
		if next != 0 {
			if err := s.votes.Insert(ctx, &data.Vote{PostID: postID, UserID: actor.ID, Value: next}); err != nil {
				return apperr.Internalf(op, err)
			}
		}
		counts, err := s.votes.Counts(ctx, postID)
		if err != nil {
			return apperr.Internalf(op, err)
		}
		tally.Score, tally.Up, tally.Down = counts.Score, counts.Up, counts.Down
		tally.UserVote = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, postID)
	return tally, nil
}

// invalidate drops the cached tally. It holds the post's tally lock so a
// concurrent fill with counts read before this vote cannot land afterwards.
func (s *VoteService) invalidate(ctx context.Context, postID int64) {
	if s.cache == nil {
		return
	}
	// The vote is committed; a cancelled request must not skip this.
	ctx = context.WithoutCancel(ctx)
	release, err := s.locker.Acquire(ctx, lock.Key("tally", postID))
	if err != nil {
		s.log.Error(err, "failed to lock vote tally")
		return
	}
	defer release()
	if err := s.cache.Delete(ctx, tallyKey(postID)); err != nil {
		s.log.Error(err, "failed to invalidate vote tally")
	}
}

// counts returns a post's counts through the cache. A miss is filled under
// the post's tally lock.
func (s *VoteService) counts(ctx context.Context, postID int64) (data.VoteCounts, error) {
	var counts data.VoteCounts
	if s.cache == nil {
		return s.votes.Counts(ctx, postID)
	}
	if hit, err := s.cache.GetJSON(ctx, tallyKey(postID), &counts); err != nil {
		s.log.Error(err, "failed to read vote tally cache")
	} else if hit {
		return counts, nil
	}

	release, err := s.locker.Acquire(ctx, lock.Key("tally", postID))
	if err != nil {
		return counts, err
	}
	defer release()
	if counts, err = s.votes.Counts(ctx, postID); err != nil {
		return counts, err
	}
	if err := s.cache.SetJSON(ctx, tallyKey(postID), counts); err != nil {
		s.log.Error(err, "failed to write vote tally cache")
	}
	return counts, nil
}

// GetTally returns a post's counts and, for a signed-in actor, their vote.
func (s *VoteService) GetTally(ctx context.Context, actor *auth.Actor, postID int64) (*Tally, error) {
	const op = "vote.GetTally"
	if err := require(s.gate, op, auth.OrGuest(actor), auth.PermViewContent, nil); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, lookup(op, "post", err)
	}

	counts, err := s.counts(ctx, postID)
	if err != nil {
		return nil, apperr.Internalf(op, err)
	}

	tally := &Tally{PostID: postID, Score: counts.Score, Up: counts.Up, Down: counts.Down}
	if actor != nil {
		mine, err := s.votes.ListFor(ctx, postID, actor.ID)
		if err != nil {
			return nil, apperr.Internalf(op, err)
		}
		if n := len(mine); n > 0 {
			tally.UserVote = mine[n-1].Value
		}
	}
	return tally, nil
}
