package api

import (
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/parlons-app/parlons/internal/api/handlers"
	"github.com/parlons-app/parlons/internal/audio"
	"github.com/parlons-app/parlons/internal/auth"
	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/internal/repository"
	"github.com/parlons-app/parlons/internal/services"
	"github.com/parlons-app/parlons/internal/tts"
	"github.com/parlons-app/parlons/internal/utils"
)

// SetupRouter configures and returns the main API router with all routes and middleware.
func SetupRouter(db *sqlx.DB, cfg *config.Config) *gin.Engine {
	utils.InitializeValidators()

	// Repositories
	participantRepo := repository.NewParticipantRepository(db)
	simulationRepo := repository.NewSimulationRepository(db)
	dialogueRepo := repository.NewDialogueRepository(db)
	lineRepo := repository.NewLineRepository(db)
	recordingRepo := repository.NewRecordingRepository(db)
	userRepo := repository.NewUserRepository(db)
	txManager := repository.NewTxManager(db)

	// Media services
	audioSvc := audio.NewService(cfg)
	var speechSvc services.SpeechSynthesizer
	if t := tts.NewService(&cfg.TTS); t != nil {
		speechSvc = t
	}
	resolver := services.NewLineResolverService(recordingRepo, speechSvc, cfg)

	// Domain services
	participantSvc := services.NewParticipantService(participantRepo)
	simulationSvc := services.NewSimulationService(txManager, simulationRepo, dialogueRepo, cfg)
	dialogueSvc := services.NewDialogueService(dialogueRepo, lineRepo, simulationRepo, participantRepo, recordingRepo)
	lineSvc := services.NewLineService(lineRepo, dialogueRepo, participantRepo, recordingRepo)
	recordingSvc := services.NewRecordingService(lineRepo, dialogueRepo, simulationRepo, recordingRepo, resolver, audioSvc, cfg)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	dialogueAudioSvc := services.NewDialogueAudioService(dialogueRepo, lineRepo, resolver, audioSvc, cfg, rng)
	simulationAudioSvc := services.NewSimulationAudioService(simulationRepo, dialogueRepo, speechSvc, audioSvc, cfg)
	userSvc := services.NewUserService(userRepo)

	h := handlers.NewHandlers(db, cfg,
		participantSvc, simulationSvc, dialogueSvc, lineSvc,
		recordingSvc, dialogueAudioSvc, simulationAudioSvc, userSvc)

	// Create auth configuration
	authConfig := &auth.Config{
		Method: cfg.Auth.Method,
		OIDC: auth.OIDCConfig{
			ProviderURL:  cfg.Auth.OIDCProviderURL,
			ClientID:     cfg.Auth.OIDCClientID,
			ClientSecret: cfg.Auth.OIDCClientSecret,
			RedirectURL:  cfg.Auth.OIDCRedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
		},
		Local: auth.LocalConfig{
			Enabled:                cfg.Auth.Method.SupportsLocal(),
			MinPasswordLength:      8,
			RequireUppercase:       true,
			RequireLowercase:       true,
			RequireNumbers:         true,
			MaxFailedAttempts:      5,
			LockoutDurationMinutes: 30,
		},
		Session: auth.SessionConfig{
			StoreType:      "memory",
			MaxAge:         86400,
			CookieName:     "parlons_session",
			CookiePath:     "/",
			CookieDomain:   cfg.Auth.CookieDomain,
			CookieSecure:   cfg.Environment == "production",
			CookieHTTPOnly: true,
			CookieSameSite: cfg.Auth.CookieSameSite,
			SecretKey:      cfg.Auth.SessionSecret,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	// Create auth service
	authService, err := auth.NewService(authConfig, db)
	if err != nil {
		log.Fatalf("Failed to create auth service: %v", err)
	}

	// Get frontend URL from environment (required if using OAuth)
	frontendURL := getEnv("PARLONS_FRONTEND_URL", "")
	if frontendURL == "" && cfg.Auth.Method.SupportsOIDC() {
		log.Fatalf("PARLONS_FRONTEND_URL is required when OAuth/OIDC is enabled")
	}
	authHandlers := NewAuthHandlers(authService, frontendURL, h)

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Create router
	r := gin.Default()

	// Session middleware - must be first
	r.Use(authService.SessionMiddleware())

	// CORS middleware
	r.Use(corsMiddleware(cfg))

	// Assembled audio assets are served directly from the media root
	r.Static("/media", cfg.Audio.MediaPath)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Authentication configuration (public)
		v1.GET("/auth/config", authHandlers.GetAuthConfig)

		// Authentication endpoints
		authGroup := v1.Group("/session")
		{
			authGroup.POST("/login", authHandlers.Login)
			authGroup.GET("/oauth/start", authHandlers.StartOAuthFlow)
			authGroup.GET("/oauth/callback", authHandlers.HandleOAuthCallback)
		}

		// Protected routes
		protected := v1.Group("")
		protected.Use(authService.Middleware())
		{
			// Session management
			protected.DELETE("/session", authHandlers.Logout)
			protected.GET("/session", authHandlers.GetCurrentUser)

			// Speaker routes
			protected.GET("/participants", authService.RequirePermission(auth.ResourceParticipants, auth.ActionRead), h.ListParticipants)
			protected.GET("/participants/:id", authService.RequirePermission(auth.ResourceParticipants, auth.ActionRead), h.GetParticipant)
			protected.POST("/participants", authService.RequirePermission(auth.ResourceParticipants, auth.ActionWrite), h.CreateParticipant)
			protected.DELETE("/participants/:id", authService.RequirePermission(auth.ResourceParticipants, auth.ActionWrite), h.DeleteParticipant)

			// Simulation routes
			protected.GET("/simulations", authService.RequirePermission(auth.ResourceSimulations, auth.ActionRead), h.ListSimulations)
			protected.GET("/simulations/:id", authService.RequirePermission(auth.ResourceSimulations, auth.ActionRead), h.GetSimulation)
			protected.GET("/simulations/:id/audio", authService.RequirePermission(auth.ResourceSimulations, auth.ActionRead), h.ServeSimulationAudio)
			protected.POST("/simulations", authService.RequirePermission(auth.ResourceSimulations, auth.ActionWrite), h.CreateSimulation)
			protected.PUT("/simulations/:id", authService.RequirePermission(auth.ResourceSimulations, auth.ActionWrite), h.UpdateSimulation)
			protected.DELETE("/simulations/:id", authService.RequirePermission(auth.ResourceSimulations, auth.ActionWrite), h.DeleteSimulation)

			// Simulation lifecycle
			protected.POST("/simulations/:id/run", authService.RequirePermission(auth.ResourceSimulations, auth.ActionWrite), h.RunSimulation)
			protected.POST("/simulations/:id/next-dialogue", authService.RequirePermission(auth.ResourceSimulations, auth.ActionWrite), h.NextDialogue)
			protected.POST("/simulations/:id/complete", authService.RequirePermission(auth.ResourceSimulations, auth.ActionWrite), h.CompleteSimulation)
			protected.PUT("/simulations/:id/current-line", authService.RequirePermission(auth.ResourceSimulations, auth.ActionWrite), h.SetCurrentLine)

			// Final audio assembly
			protected.POST("/simulations/:id/audio", authService.RequirePermission(auth.ResourceSimulations, auth.ActionGenerate), h.GenerateSimulationAudio)

			// Dialogue routes
			protected.GET("/dialogues", authService.RequirePermission(auth.ResourceDialogues, auth.ActionRead), h.ListDialogues)
			protected.GET("/dialogues/:id", authService.RequirePermission(auth.ResourceDialogues, auth.ActionRead), h.GetDialogue)
			protected.GET("/dialogues/:id/audio", authService.RequirePermission(auth.ResourceDialogues, auth.ActionRead), h.ServeDialogueAudio)
			protected.POST("/dialogues", authService.RequirePermission(auth.ResourceDialogues, auth.ActionWrite), h.CreateDialogue)
			protected.PUT("/dialogues/:id", authService.RequirePermission(auth.ResourceDialogues, auth.ActionWrite), h.UpdateDialogue)
			protected.DELETE("/dialogues/:id", authService.RequirePermission(auth.ResourceDialogues, auth.ActionWrite), h.DeleteDialogue)
			protected.POST("/dialogues/:id/participants", authService.RequirePermission(auth.ResourceDialogues, auth.ActionWrite), h.AddDialogueParticipant)
			protected.DELETE("/dialogues/:id/participants", authService.RequirePermission(auth.ResourceDialogues, auth.ActionWrite), h.RemoveDialogueParticipant)
			protected.POST("/dialogues/:id/audio", authService.RequirePermission(auth.ResourceDialogues, auth.ActionGenerate), h.GenerateDialogueAudio)

			// Line routes
			protected.GET("/lines", authService.RequirePermission(auth.ResourceLines, auth.ActionRead), h.ListLines)
			protected.GET("/lines/:id", authService.RequirePermission(auth.ResourceLines, auth.ActionRead), h.GetLine)
			protected.GET("/lines/:id/audio", authService.RequirePermission(auth.ResourceLines, auth.ActionRead), h.ServeLineAudio)
			protected.POST("/lines", authService.RequirePermission(auth.ResourceLines, auth.ActionWrite), h.CreateLine)
			protected.DELETE("/lines/:id", authService.RequirePermission(auth.ResourceLines, auth.ActionWrite), h.DeleteLine)

			// Recording routes
			protected.GET("/lines/:id/recording", authService.RequirePermission(auth.ResourceRecordings, auth.ActionRead), h.GetLineRecording)
			protected.POST("/lines/:id/recording", authService.RequirePermission(auth.ResourceRecordings, auth.ActionWrite), h.UploadLineRecording)
			protected.DELETE("/lines/:id/recording", authService.RequirePermission(auth.ResourceRecordings, auth.ActionWrite), h.DeleteLineRecording)
			protected.POST("/lines/:id/recording/synthesize", authService.RequirePermission(auth.ResourceRecordings, auth.ActionGenerate), h.SynthesizeLineRecording)

			// Dashboard statistics
			protected.GET("/stats", authService.RequirePermission(auth.ResourceSimulations, auth.ActionRead), h.GetStats)

			// User routes (admin only)
			protected.GET("/users", authService.RequirePermission(auth.ResourceUsers, auth.ActionRead), h.ListUsers)
			protected.GET("/users/:id", authService.RequirePermission(auth.ResourceUsers, auth.ActionRead), h.GetUser)
			protected.POST("/users", authService.RequirePermission(auth.ResourceUsers, auth.ActionWrite), h.CreateUser)
			protected.PUT("/users/:id", authService.RequirePermission(auth.ResourceUsers, auth.ActionWrite), h.UpdateUser)
			protected.DELETE("/users/:id", authService.RequirePermission(auth.ResourceUsers, auth.ActionWrite), h.DeleteUser)
			protected.POST("/users/:id/suspend", authService.RequirePermission(auth.ResourceUsers, auth.ActionWrite), h.SuspendUser)
			protected.POST("/users/:id/restore", authService.RequirePermission(auth.ResourceUsers, auth.ActionWrite), h.RestoreUser)
			protected.PUT("/users/:id/password", authService.RequirePermission(auth.ResourceUsers, auth.ActionWrite), h.ChangePassword)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.HealthResponse{
			Status:  "ok",
			Service: "parlons-api",
		})
	})

	return r
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// If no allowed origins are configured, disable CORS (secure by default)
		if cfg.Server.AllowedOrigins == "" {
			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}
			c.Next()
			return
		}

		// Check if the origin is in the allowed list
		if isAllowedOrigin(origin, cfg.Server.AllowedOrigins) {
			// Delete any existing CORS headers that might be set by proxies
			c.Writer.Header().Del("Access-Control-Allow-Origin")
			c.Writer.Header().Del("Access-Control-Allow-Credentials")
			c.Writer.Header().Del("Access-Control-Allow-Headers")
			c.Writer.Header().Del("Access-Control-Allow-Methods")

			// Set our CORS headers
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin checks if the origin is in the comma-separated list of allowed origins
func isAllowedOrigin(origin string, allowedOrigins string) bool {
	if origin == "" {
		return false
	}

	// Split the allowed origins by comma
	origins := strings.Split(allowedOrigins, ",")
	for _, allowed := range origins {
		allowed = strings.TrimSpace(allowed)
		if allowed == origin {
			return true
		}
	}

	return false
}

// getEnv gets environment variable with default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
