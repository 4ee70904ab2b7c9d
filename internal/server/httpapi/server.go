// Package httpapi exposes the discussion board over the JSON API the
// mobile clients speak. Handlers stay thin: header and session checks run
// as middleware, domain rules live in the services and repositories.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uchan-net/uchan/internal/logging"
	"github.com/uchan-net/uchan/internal/server/config"
	"github.com/uchan-net/uchan/internal/server/db"
	"github.com/uchan-net/uchan/internal/server/media"
	"github.com/uchan-net/uchan/internal/server/monitoring"
	"github.com/uchan-net/uchan/internal/server/sessions"
	"github.com/uchan-net/uchan/internal/server/users"
)

type Server struct {
	config   *config.Config
	logger   logging.Logger
	repos    db.RepositoryManager
	users    *users.Service
	sessions *sessions.Service
	media    media.Store
}

func NewServer(cfg *config.Config, logger logging.Logger, repos db.RepositoryManager,
	userService *users.Service, sessionService *sessions.Service, store media.Store) *Server {
	return &Server{
		config:   cfg,
		logger:   logger,
		repos:    repos,
		users:    userService,
		sessions: sessionService,
		media:    store,
	}
}

func (s *Server) Router() *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery(), monitoring.Instrument())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/", s.RequireHeaders(), s.handleHello)

	api := r.Group("/api", s.RequireHeaders())
	{
		api.POST("/registration", s.handleRegister)
		api.GET("/activation/:token", s.handleActivate)
		api.POST("/session", s.handleLogin)

		auth := api.Group("", s.RequireSession())
		{
			auth.DELETE("/session/:token", s.handleLogout)

			auth.GET("/me", s.handleMe)
			auth.GET("/me/threads", s.handleMyThreads)
			auth.GET("/me/threads/:page", s.handleMyThreads)

			auth.GET("/university", s.handleUniversityList)
			auth.GET("/university/:id", s.handleUniversityGet)

			auth.GET("/board/:id", s.handleBoardThreads)
			auth.GET("/board/:id/:page", s.handleBoardThreads)
			auth.POST("/board/:id", s.handleThreadCreate)

			auth.GET("/thread/:id", s.handleThreadPosts)
			auth.GET("/thread/:id/:page", s.handleThreadPosts)
			auth.POST("/thread/:id", s.handlePostCreate)
			auth.DELETE("/thread/:id", s.handleThreadDelete)

			auth.DELETE("/post/:id", s.handlePostDelete)

			auth.GET("/chat", s.handleChatList)
			auth.GET("/chat/request", s.handleChatRequests)
			auth.POST("/chat/request/:id", s.handleChatRequestCreate)
			auth.POST("/chat/accept/:id", s.handleChatAccept)
			auth.DELETE("/chat/accept/:id", s.handleChatDecline)
			auth.GET("/chat/:id", s.handleChatList)
			auth.GET("/chat/:id/messages", s.handleChatMessages)
			auth.GET("/chat/:id/messages/:page", s.handleChatMessages)
			auth.POST("/chat/:id/messages", s.handleChatMessageCreate)

			auth.GET("/media/:filename", s.handleMedia)
		}
	}

	return r
}

// Run serves until the context is canceled, then shuts down draining
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.EndpointAddr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info(ctx, "http server listening", "addr", s.config.EndpointAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHello(c *gin.Context) {
	respondData(c, http.StatusOK, gin.H{"message": "hello"})
}
