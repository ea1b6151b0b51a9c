//go:build unit

package auth

import (
	"testing"

	"go-community-app/internal/apperr"
)

type ownedResource struct {
	authorID int64
}

func (o ownedResource) OwnerID() int64 { return o.authorID }

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	a, err := NewAuthority()
	if err != nil {
		t.Fatalf("NewAuthority failed: %v", err)
	}
	return NewGate(a)
}

func TestGate_Authorize(t *testing.T) {
	gate := newTestGate(t)

	admin := &Actor{ID: 1, Role: RoleAdmin}
	moderator := &Actor{ID: 2, Role: RoleModerator}
	member := &Actor{ID: 3, Role: RoleMember}
	guest := &Actor{ID: 4, Role: RoleGuest}
	stranger := &Actor{ID: 5, Role: Role("editor")}

	ownThread := ownedResource{authorID: 3}
	othersThread := ownedResource{authorID: 99}

	cases := []struct {
		name       string
		actor      *Actor
		permission Permission
		resource   Owned
		allowed    bool
		reason     string
	}{
		{"admin manages categories", admin, PermManageCategories, nil, true, ""},
		{"moderator cannot manage categories", moderator, PermManageCategories, nil, false, ReasonForbidden},
		{"absent actor is unauthenticated", nil, PermCreatePosts, nil, false, ReasonUnauthenticated},
		{"absent actor cannot even view through the gate", nil, PermViewContent, nil, false, ReasonUnauthenticated},
		{"member tags own thread", member, PermTagThreads, ownThread, true, ""},
		{"member cannot tag others' thread", member, PermTagThreads, othersThread, false, ReasonForbidden},
		{"member own variant needs a resource", member, PermTagThreads, nil, false, ReasonForbidden},
		{"moderator tags any thread", moderator, PermTagThreads, othersThread, true, ""},
		{"member edits own post", member, PermEditAnyPost, ownThread, true, ""},
		{"member cannot delete others' post", member, PermDeleteAnyPost, othersThread, false, ReasonForbidden},
		{"moderator deletes any post", moderator, PermDeleteAnyPost, othersThread, true, ""},
		{"member cannot lock own thread", member, PermManageContent, ownThread, false, ReasonForbidden},
		{"guest cannot vote", guest, PermVotePosts, nil, false, ReasonForbidden},
		{"guest owning a resource gains nothing", &Actor{ID: 99, Role: RoleGuest}, PermEditAnyPost, othersThread, false, ReasonForbidden},
		{"unknown role fails closed", stranger, PermViewContent, nil, false, ReasonForbidden},
		{"member cannot edit pages", member, PermEditContent, nil, false, ReasonForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := gate.Authorize(tc.actor, tc.permission, tc.resource)
			if d.Allowed != tc.allowed {
				t.Fatalf("Authorize allowed = %v, want %v", d.Allowed, tc.allowed)
			}
			if d.Reason != tc.reason {
				t.Errorf("Authorize reason = %q, want %q", d.Reason, tc.reason)
			}
		})
	}
}

// Non-owners never get through on an own variant, for every blanket
// permission that has one and every role lacking the blanket grant.
func TestGate_OwnVariantRequiresOwnership(t *testing.T) {
	gate := newTestGate(t)
	res := ownedResource{authorID: 1000}

	for blanket := range ownVariants {
		for _, role := range Roles {
			if gate.Authority().RoleHas(role, blanket) {
				continue
			}
			actor := &Actor{ID: 1, Role: role}
			if gate.Can(actor, blanket, res) {
				t.Errorf("role %q allowed %q on a resource it does not own", role, blanket)
			}
		}
	}
}

func TestDecision_Err(t *testing.T) {
	gate := newTestGate(t)

	if err := gate.Require(&Actor{ID: 1, Role: RoleAdmin}, PermEditContent, nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := gate.Require(nil, PermEditContent, nil); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("expected Unauthenticated, got %v", err)
	}
	if err := gate.Require(&Actor{ID: 2, Role: RoleMember}, PermEditContent, nil); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("expected Forbidden, got %v", err)
	}
}
