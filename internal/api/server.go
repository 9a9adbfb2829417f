package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/chatterfeed/internal/api/auth"
	apimw "github.com/chatterfeed/internal/api/middleware"
	"github.com/chatterfeed/internal/chats"
	"github.com/chatterfeed/internal/config"
	"github.com/chatterfeed/internal/engagement"
	"github.com/chatterfeed/internal/feed"
)

// Server represents the API server
type Server struct {
	echo         *echo.Echo
	port         int
	tokenService *auth.TokenService
}

// NewServer wires repositories, services, and handlers onto an echo instance.
// queue may be nil; chats published without a queue stay untagged.
func NewServer(cfg *config.Config, db *sql.DB, queue HashtagEnqueuer) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(apimw.NewRateLimiter(20, 40).Middleware())

	tokenService := auth.NewTokenService(db, cfg.Auth.JWTSecret)
	tokenService.StartCleanupScheduler()

	server := &Server{
		echo:         e,
		port:         cfg.Server.Port,
		tokenService: tokenService,
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	}

	feedRepo := feed.NewRepo(db)
	aggregator := feed.NewAggregator(feedRepo)
	aggregator.SetPageSizeLimits(cfg.Feed.DefaultPageSize, cfg.Feed.MaxPageSize)
	feedHandlers := NewFeedHandlers(aggregator, feedRepo)
	engagementHandlers := NewEngagementHandlers(
		engagement.NewService(engagement.NewSQLStore(db)),
		engagement.NewCountCache(redisClient),
	)
	chatHandlers := NewChatHandlers(chats.NewRepo(db), queue)
	authHandlers := auth.NewAuthHandlers(tokenService, db)

	server.setupRoutes(feedHandlers, engagementHandlers, chatHandlers, authHandlers)

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes(feedH *FeedHandlers, engagementH *EngagementHandlers, chatH *ChatHandlers, authH *auth.AuthHandlers) {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	v1 := s.echo.Group("/api/v1")

	requireAuth := auth.RequireAuth(s.tokenService)
	optionalAuth := auth.OptionalAuth(s.tokenService)

	// Auth endpoints
	v1.POST("/auth/signup", authH.Signup)
	v1.POST("/auth/login", authH.Login)
	v1.POST("/auth/logout", authH.Logout)
	v1.POST("/auth/refresh", authH.RefreshToken)
	v1.GET("/auth/me", authH.Me, requireAuth)
	v1.POST("/auth/password", authH.ChangePassword, requireAuth)
	v1.POST("/auth/nickname", authH.UpdateNickname, requireAuth)

	// Feed endpoints
	v1.GET("/feed", feedH.GetFeed)
	v1.GET("/u/:slug", feedH.GetUserFeed)
	v1.GET("/activity", feedH.GetActivity, requireAuth)

	// Engagement endpoints
	v1.POST("/vote", engagementH.Vote, requireAuth)
	v1.POST("/repost", engagementH.Repost, requireAuth)
	v1.DELETE("/repost/:chatId", engagementH.RemoveRepost, requireAuth)
	v1.GET("/chats/:id/counts", engagementH.GetCounts)

	// Chat endpoints
	v1.POST("/chats", chatH.CreateChat, requireAuth)
	v1.GET("/chats/:id", chatH.GetChat, optionalAuth)
	v1.POST("/chats/:id/messages", chatH.AddMessage, requireAuth)
	v1.POST("/chats/:id/visibility", chatH.SetVisibility, requireAuth)
	v1.DELETE("/chats/:id", chatH.DeleteChat, requireAuth)
}

// Start begins the API server and blocks until an interrupt, then shuts down
// gracefully.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("shutting down the server")
		}
	}()

	log.Info().Int("port", s.port).Msg("server started")

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
