package bootstrap

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"

	apihttp "github.com/Mr-Baga08/ai-email-marketing-sub001/adapter/in/http"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/config"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/infra/middleware"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

// NewAPI assembles the HTTP server over an existing dependency graph.
func NewAPI(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		ReadBufferSize:  16384,
		WriteBufferSize: 16384,
		JSONEncoder:     json.Marshal,
		JSONDecoder:     json.Unmarshal,
		BodyLimit:       10 * 1024 * 1024,
		ServerHeader:    "",
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// AllowCredentials:true requires explicit origins, never "*".
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health checks (no auth required)
	healthHandler := apihttp.NewHealthHandler(deps.MongoClient, deps.Redis)
	healthHandler.Register(app)

	// API routes (with auth)
	api := app.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))

	apihttp.NewAutomationHandler(deps.AutomationService).Register(api)
	apihttp.NewKnowledgeHandler(deps.KnowledgeService).Register(api)
	apihttp.NewSettingsHandler(deps.SettingsRepo).Register(api)

	logger.Info("API routes registered")
	return app
}
