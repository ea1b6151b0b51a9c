package auth

import "go-community-app/internal/apperr"

// Actor is an authenticated identity. A nil *Actor means nobody is signed in.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

// Owned is implemented by resources that have an author. Callers must pass
// resources as loaded from the store; an OwnerID taken from a request body
// would let clients claim ownership.
type Owned interface {
	OwnerID() int64
}

// Denial reasons.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonForbidden       = "forbidden"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err converts a denial into an apperr; it returns nil when allowed.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonUnauthenticated:
		return apperr.E(apperr.Unauthenticated, "", "authentication required")
	default:
		return apperr.E(apperr.Forbidden, "", "you do not have permission to do this")
	}
}

// Gate is the single authorization entry point. It has no state besides
// the role table and no side effects.
type Gate struct {
	authority *Authority
}

// NewGate creates a Gate over the given Authority.
func NewGate(a *Authority) *Gate {
	return &Gate{authority: a}
}

// Authority exposes the underlying role table.
func (g *Gate) Authority() *Authority {
	return g.authority
}

// Authorize decides whether actor may use permission, optionally on res.
func (g *Gate) Authorize(actor *Actor, permission Permission, res Owned) Decision {
	if actor == nil {
		return Decision{Reason: ReasonUnauthenticated}
	}
	if g.authority.RoleHas(actor.Role, permission) {
		return Decision{Allowed: true}
	}
	if res != nil {
		if own, ok := OwnVariant(permission); ok &&
			res.OwnerID() == actor.ID &&
			g.authority.RoleHas(actor.Role, own) {
			return Decision{Allowed: true}
		}
	}
	return Decision{Reason: ReasonForbidden}
}

// Require is Authorize returning an error on denial.
func (g *Gate) Require(actor *Actor, permission Permission, res Owned) error {
	return g.Authorize(actor, permission, res).Err()
}

// Can is Authorize reduced to a bool, for branching on moderator-level
// powers without producing an error.
func (g *Gate) Can(actor *Actor, permission Permission, res Owned) bool {
	return g.Authorize(actor, permission, res).Allowed
}

// OrGuest returns actor, or a guest actor when nobody is signed in. Only
// read paths use it; mutations must see the absent actor and fail as
// unauthenticated.
func OrGuest(actor *Actor) *Actor {
	if actor == nil {
		return &Actor{Role: RoleGuest}
	}
	return actor
}
