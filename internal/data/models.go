package data

import "time"

// User is a signed-in identity. Role is stored as text and normalized by
// auth.ParseRole when the actor is built.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Subject   string    `db:"subject" json:"-"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"-"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Category groups threads. The default category can be neither changed nor deleted.
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsDefault bool      `db:"is_default" json:"isDefault"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ThreadState is the moderation state of a thread. Deleted threads no
// longer exist, so only Open and Locked are ever observed.
type ThreadState string

const (
	ThreadOpen   ThreadState = "open"
	ThreadLocked ThreadState = "locked"
)

// Thread is a forum discussion.
type Thread struct {
	ID         int64     `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	AuthorID   int64     `db:"author_id" json:"authorId"`
	CategoryID int64     `db:"category_id" json:"categoryId"`
	IsLocked   bool      `db:"is_locked" json:"isLocked"`
	IsPinned   bool      `db:"is_pinned" json:"isPinned"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
	Tags       []*Tag    `db:"-" json:"tags,omitempty"`
}

// OwnerID returns the thread author.
func (t *Thread) OwnerID() int64 { return t.AuthorID }

// State returns the moderation state.
func (t *Thread) State() ThreadState {
	if t.IsLocked {
		return ThreadLocked
	}
	return ThreadOpen
}

// Post is a reply in a thread.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	ThreadID  int64     `db:"thread_id" json:"threadId"`
	AuthorID  int64     `db:"author_id" json:"authorId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// OwnerID returns the post author.
func (p *Post) OwnerID() int64 { return p.AuthorID }

// Comment is a short remark on a post.
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"postId"`
	AuthorID  int64     `db:"author_id" json:"authorId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// OwnerID returns the comment author.
func (c *Comment) OwnerID() int64 { return c.AuthorID }

// Tag labels threads.
type Tag struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Vote is one user's vote on one post. Value is +1 or -1.
type Vote struct {
	ID     int64 `db:"id" json:"-"`
	PostID int64 `db:"post_id" json:"postId"`
	UserID int64 `db:"user_id" json:"userId"`
	Value  int   `db:"value" json:"value"`
}

// VoteCounts aggregates the votes of a post.
type VoteCounts struct {
	Score int `db:"score"`
	Up    int `db:"up"`
	Down  int `db:"down"`
}

// Page is an editable site page.
type Page struct {
	ID          int64     `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	CreatedByID int64     `db:"created_by" json:"createdById"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// OwnerID returns the page creator.
func (p *Page) OwnerID() int64 { return p.CreatedByID }

// ContentBlock is an ordered, individually publishable section of a page.
type ContentBlock struct {
	ID          int64     `db:"id" json:"id"`
	PageID      int64     `db:"page_id" json:"pageId"`
	Content     string    `db:"content" json:"content"`
	Order       int       `db:"sort_order" json:"order"`
	IsPublished bool      `db:"is_published" json:"isPublished"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// EntityType names the kinds of content that keep revisions.
type EntityType string

const (
	EntityPage  EntityType = "page"
	EntityBlock EntityType = "block"
)

// Valid reports whether t is a revisioned entity type.
func (t EntityType) Valid() bool {
	return t == EntityPage || t == EntityBlock
}

// Revision is an immutable snapshot of an entity's content.
type Revision struct {
	ID         int64      `db:"id" json:"id"`
	EntityType EntityType `db:"entity_type" json:"entityType"`
	EntityID   int64      `db:"entity_id" json:"entityId"`
	Content    string     `db:"content" json:"content"`
	AuthorID   int64      `db:"author_id" json:"authorId"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}
