// Package service holds the moderation, voting and content rules. Every
// mutation asks the permission gate first and runs in one transaction.
package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go-community-app/internal/apperr"
	"go-community-app/internal/auth"
	"go-community-app/internal/config"
	"go-community-app/internal/data"

	"github.com/microcosm-cc/bluemonday"
)

// require asks the gate and tags a denial with op.
func require(g *auth.Gate, op string, actor *auth.Actor, perm auth.Permission, res auth.Owned) error {
	return apperr.Wrap(apperr.Forbidden, op, g.Require(actor, perm, res))
}

// signedIn fails as Unauthenticated before any lookup is made.
func signedIn(op string, actor *auth.Actor) error {
	if actor == nil {
		return apperr.E(apperr.Unauthenticated, op, "authentication required")
	}
	return nil
}

// lookup maps a repository miss to NotFound and anything else to Internal.
func lookup(op, what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, data.ErrNotFound) {
		return apperr.E(apperr.NotFound, op, what+" not found")
	}
	return apperr.Wrap(apperr.Internal, op, err)
}

// validator sanitizes and bounds user input.
type validator struct {
	ugc      *bluemonday.Policy
	strict   *bluemonday.Policy
	maxTitle int
	maxBody  int
}

func newValidator(cfg config.ContentConfig) *validator {
	d := config.Default().Content
	if cfg.MaxTitleLength <= 0 {
		cfg.MaxTitleLength = d.MaxTitleLength
	}
	if cfg.MaxBodyLength <= 0 {
		cfg.MaxBodyLength = d.MaxBodyLength
	}
	return &validator{
		ugc:      bluemonday.UGCPolicy(),
		strict:   bluemonday.StrictPolicy(),
		maxTitle: cfg.MaxTitleLength,
		maxBody:  cfg.MaxBodyLength,
	}
}

// title strips all markup and checks the length in runes.
func (v *validator) title(op, s string) (string, error) {
	s = strings.TrimSpace(v.strict.Sanitize(s))
	return s, checkLength(op, "title", s, v.maxTitle)
}

// body keeps safe formatting and checks the length in runes.
func (v *validator) body(op, s string) (string, error) {
	s = strings.TrimSpace(v.ugc.Sanitize(s))
	return s, checkLength(op, "content", s, v.maxBody)
}

func checkLength(op, field, s string, max int) error {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return apperr.E(apperr.InvalidArgument, op, field+" must not be empty")
	}
	if n > max {
		return apperr.E(apperr.InvalidArgument, op, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

// uniqueIDs drops duplicates and keeps the first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
