package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-community-app/internal/auth"
	"go-community-app/internal/cache"
	"go-community-app/internal/config"
	"go-community-app/internal/data"
	"go-community-app/internal/handler"
	"go-community-app/internal/lock"
	"go-community-app/internal/logger"
	"go-community-app/internal/middleware"
	"go-community-app/internal/revision"
	"go-community-app/internal/service"
	"go-community-app/internal/session"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	// --- Pre-flight Checks ---
	if cfg.Session.SecretKey == "" || cfg.Session.SecretKey == "CHANGE_ME_IN_PRODUCTION_SECRET!!" {
		log.Fatal(errors.New("session secret key not set"), "Please set a secure COMMUNITY_SESSION_SECRETKEY environment variable.")
	}

	// --- Database Initialization and Migration ---
	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(db); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	// --- Session Management Setup ---
	var store scs.Store
	if cfg.DB.Driver == data.DriverMySQL {
		store = mysqlstore.New(db.DB)
	} else {
		store = sqlite3store.New(db.DB)
	}
	sessionManager := session.New(store, time.Duration(cfg.Session.Lifetime)*time.Hour, cfg.Server.TLS.Enabled)

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authentication and authorization...")
	authenticator, err := auth.NewAuthenticator(context.Background(), &cfg.OIDC)
	if err != nil {
		log.Fatal(err, "Failed to initialize authenticator")
	}
	authority, err := auth.NewAuthority()
	if err != nil {
		log.Fatal(err, "Failed to build role table")
	}
	if err := authority.Publish(auth.NewPolicyAdapter(cfg.DB.Driver, cfg.DB.DSN)); err != nil {
		log.Fatal(err, "Failed to publish role table")
	}
	gate := auth.NewGate(authority)
	log.Info("Auth components initialized and role table published.")

	// --- Cache Initialization ---
	log.Info("Initializing SQLite cache...")
	tallies, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer tallies.Close()

	// --- Lock Initialization ---
	var locker lock.Locker = lock.NewLocal()
	if cfg.Lock.RedisURL != "" {
		rl, err := lock.NewRedis(cfg.Lock.RedisURL, cfg.Lock.TTL)
		if err != nil {
			log.Fatal(err, "Failed to connect to lock server")
		}
		defer rl.Close()
		rl.OnLost(func(key string, err error) {
			log.With(map[string]interface{}{"key": key}).Error(err, "lock was lost before release")
		})
		locker = rl
		log.Info("Using Redis locks.")
	} else {
		log.Warn("No lock.redis_url set; locks only cover this process.")
	}

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	stores := service.NewStores(db)
	revisions := revision.NewStore(stores.Revisions, stores.Tx, revision.Options{
		SnapshotOnRestore: cfg.Revisions.SnapshotOnRestore,
	})
	forumService := service.NewForumService(gate, stores, cfg.Content, log)
	voteService := service.NewVoteService(gate, stores, locker, tallies, log)
	contentService := service.NewContentService(gate, stores, revisions, locker, cfg.Content, log)
	categoryService := service.NewCategoryService(gate, stores, cfg.Content, log)
	userService := service.NewUserService(gate, stores, log)

	users := data.NewUserRepository(db)
	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authenticator, sessionManager, users, log),
		Forum:      handler.NewForumHandler(forumService, voteService),
		Content:    handler.NewContentHandler(contentService),
		Categories: handler.NewCategoryHandler(categoryService),
		Users:      handler.NewUserHandler(userService),
	}

	// --- Router Setup ---
	router := handler.NewRouter(handlers, sessionManager,
		middleware.LoadActor(sessionManager, users, log),
		middleware.Error(log))

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()

	// Expired tally entries are dropped in the background.
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(tallies.TTL() * 10)
		defer ticker.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-ticker.C:
				if _, err := tallies.Purge(purgeCtx); err != nil {
					log.Error(err, "Failed to purge cache")
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	stopPurge()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}
