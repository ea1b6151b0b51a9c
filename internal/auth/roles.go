package auth

import "strings"

// Role is the closed set of roles an actor can hold. Rank exists for display
// only; authorization is decided by permission sets.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
	RoleGuest     Role = "guest"
)

// Roles lists every known role, most privileged first.
var Roles = []Role{RoleAdmin, RoleModerator, RoleMember, RoleGuest}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleMember, RoleGuest:
		return true
	default:
		return false
	}
}

// Rank orders roles for display. Unknown roles rank lowest.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleModerator:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// ParseRole normalizes a stored or submitted role string. Case and
// surrounding whitespace are ignored here and nowhere else. The second
// return value is false for unknown roles; the returned Role then holds no
// permissions.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Permission is a capability token. The literal strings are shared with
// stored configuration and must not change.
type Permission string

const (
	PermViewContent Permission = "view:content"

	PermCreateThreads  Permission = "create:threads"
	PermCreatePosts    Permission = "create:posts"
	PermCreateComments Permission = "create:comments"
	PermVotePosts      Permission = "vote:posts"

	PermEditThreads    Permission = "edit:threads"
	PermEditOwnThreads Permission = "edit:own_threads"
	PermTagThreads     Permission = "tag:threads"
	PermTagOwnThreads  Permission = "tag:own_threads"

	PermEditAnyPost      Permission = "edit:any_post"
	PermEditOwnPost      Permission = "edit:own_post"
	PermDeleteAnyPost    Permission = "delete:any_post"
	PermDeleteOwnPost    Permission = "delete:own_post"
	PermEditAnyComment   Permission = "edit:any_comment"
	PermEditOwnComment   Permission = "edit:own_comment"
	PermDeleteAnyComment Permission = "delete:any_comment"
	PermDeleteOwnComment Permission = "delete:own_comment"

	PermManageContent    Permission = "manage:content"
	PermManageTags       Permission = "manage:tags"
	PermManageCategories Permission = "manage:categories"
	PermManageUsers      Permission = "manage:users"
	PermEditContent      Permission = "edit:content"
)

// grants is the static role table. Each role lists only what it adds; the
// inherits chain below fills in the rest.
var grants = map[Role][]Permission{
	RoleGuest: {
		PermViewContent,
	},
	RoleMember: {
		PermCreateThreads, PermCreatePosts, PermCreateComments, PermVotePosts,
		PermEditOwnThreads, PermTagOwnThreads,
		PermEditOwnPost, PermDeleteOwnPost,
		PermEditOwnComment, PermDeleteOwnComment,
	},
	RoleModerator: {
		PermManageContent, PermManageTags,
		PermTagThreads, PermEditThreads,
		PermEditAnyPost, PermDeleteAnyPost,
		PermEditAnyComment, PermDeleteAnyComment,
	},
	RoleAdmin: {
		PermManageCategories, PermManageUsers, PermEditContent,
	},
}

// inherits maps a role to the role whose permissions it also holds.
var inherits = map[Role]Role{
	RoleAdmin:     RoleModerator,
	RoleModerator: RoleMember,
	RoleMember:    RoleGuest,
}

// ownVariants maps a blanket permission to its own-resource variant.
var ownVariants = map[Permission]Permission{
	PermTagThreads:       PermTagOwnThreads,
	PermEditThreads:      PermEditOwnThreads,
	PermEditAnyPost:      PermEditOwnPost,
	PermDeleteAnyPost:    PermDeleteOwnPost,
	PermEditAnyComment:   PermEditOwnComment,
	PermDeleteAnyComment: PermDeleteOwnComment,
}

// OwnVariant returns the own-resource variant of p, if one exists.
func OwnVariant(p Permission) (Permission, bool) {
	own, ok := ownVariants[p]
	return own, ok
}

// AllPermissions returns every permission named in the table.
func AllPermissions() []Permission {
	var all []Permission
	for _, role := range Roles {
		all = append(all, grants[role]...)
	}
	return all
}
