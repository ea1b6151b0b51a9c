package handler

import (
	"net/http"

	"go-community-app/internal/middleware"
	"go-community-app/internal/session"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups every handler the router mounts.
type Handlers struct {
	Auth       *AuthHandler
	Forum      *ForumHandler
	Content    *ContentHandler
	Categories *CategoryHandler
	Users      *UserHandler
}

// NewRouter creates and configures a new chi router.
func NewRouter(h Handlers, sm session.Manager, loadActor func(http.Handler) http.Handler, errorMiddleware func(middleware.AppHandler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(sm.LoadAndSave)
	r.Use(loadActor)

	e := errorMiddleware

	// Authentication routes
	r.Get("/auth/login", e(h.Auth.handleLogin).ServeHTTP)
	r.Get("/auth/callback", e(h.Auth.handleCallback).ServeHTTP)
	r.Get("/auth/logout", e(h.Auth.handleLogout).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/me", e(h.Auth.handleMe))
		r.Method(http.MethodPatch, "/users/{id}/role", e(h.Users.setRole))

		r.Method(http.MethodGet, "/categories", e(h.Categories.listCategories))
		r.Method(http.MethodPost, "/categories", e(h.Categories.createCategory))
		r.Method(http.MethodPatch, "/categories/{id}", e(h.Categories.renameCategory))
		r.Method(http.MethodDelete, "/categories/{id}", e(h.Categories.deleteCategory))
		r.Method(http.MethodGet, "/categories/{id}/threads", e(h.Forum.listThreads))

		r.Method(http.MethodGet, "/tags", e(h.Categories.listTags))
		r.Method(http.MethodPost, "/tags", e(h.Categories.createTag))
		r.Method(http.MethodDelete, "/tags/{id}", e(h.Categories.deleteTag))

		r.Method(http.MethodPost, "/threads", e(h.Forum.createThread))
		r.Route("/threads/{id}", func(r chi.Router) {
			r.Method(http.MethodGet, "/", e(h.Forum.getThread))
			r.Method(http.MethodPatch, "/", e(h.Forum.editThread))
			r.Method(http.MethodDelete, "/", e(h.Forum.deleteThread))
			r.Method(http.MethodPost, "/lock", e(h.Forum.toggleLock))
			r.Method(http.MethodPost, "/pin", e(h.Forum.togglePin))
			r.Method(http.MethodPost, "/move", e(h.Forum.moveThread))
			r.Method(http.MethodPost, "/tags", e(h.Forum.attachTags))
			r.Method(http.MethodDelete, "/tags", e(h.Forum.detachTags))
			r.Method(http.MethodGet, "/posts", e(h.Forum.listPosts))
			r.Method(http.MethodPost, "/posts", e(h.Forum.createPost))
		})

		r.Route("/posts/{id}", func(r chi.Router) {
			r.Method(http.MethodPatch, "/", e(h.Forum.editPost))
			r.Method(http.MethodDelete, "/", e(h.Forum.deletePost))
			r.Method(http.MethodGet, "/votes", e(h.Forum.getTally))
			r.Method(http.MethodPost, "/votes", e(h.Forum.castVote))
			r.Method(http.MethodGet, "/comments", e(h.Forum.listComments))
			r.Method(http.MethodPost, "/comments", e(h.Forum.createComment))
		})
		r.Method(http.MethodPatch, "/comments/{id}", e(h.Forum.editComment))
		r.Method(http.MethodDelete, "/comments/{id}", e(h.Forum.deleteComment))

		r.Method(http.MethodPost, "/pages", e(h.Content.createPage))
		r.Route("/pages/{id}", func(r chi.Router) {
			r.Method(http.MethodGet, "/", e(h.Content.getPage))
			r.Method(http.MethodPatch, "/", e(h.Content.updatePage))
			r.Method(http.MethodDelete, "/", e(h.Content.deletePage))
			r.Method(http.MethodGet, "/blocks", e(h.Content.listBlocks))
			r.Method(http.MethodPost, "/blocks", e(h.Content.createBlock))
		})
		r.Method(http.MethodPatch, "/blocks/{id}", e(h.Content.updateBlock))
		r.Method(http.MethodDelete, "/blocks/{id}", e(h.Content.deleteBlock))

		r.Method(http.MethodGet, "/revisions/{type}/{id}", e(h.Content.listRevisions))
		r.Method(http.MethodPost, "/revisions/{id}/restore", e(h.Content.restoreRevision))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "not found")
	})
	return r
}
