package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credocs/docs"
	"credocs/internal/config"
	"credocs/internal/database"
	"credocs/internal/database/migration"
	handlers "credocs/internal/http/handler"
	"credocs/internal/http/middleware"
	"credocs/internal/oracle"
	"credocs/internal/oracle/heuristic"
	"credocs/internal/oracle/openai"
	"credocs/internal/otel"
	"credocs/internal/repository/postgres"
	"credocs/internal/service"
	"credocs/internal/storage"
	"credocs/internal/validate"
)

// @title Credit Documents API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := time.UTC

	// Initialize tracing; degrades to noop when the exporter is unreachable
	shutdownTracing, err := otel.Init(context.Background(), loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(context.Background(), db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Pick the oracle: LLM-backed when credentials are configured, keyword
	// heuristic otherwise.
	var docOracle oracle.Oracle
	llm := openai.NewClient(openai.Config{
		APIKey:  cfg.Oracle.APIKey,
		BaseURL: cfg.Oracle.BaseURL,
		Model:   cfg.Oracle.Model,
		Timeout: time.Duration(cfg.Oracle.TimeoutSec) * time.Second,
	}, slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	if llm.Configured() {
		docOracle = llm
	} else {
		docOracle = heuristic.New(time.Now)
	}

	var gate validate.Gate
	if cfg.Validation.GateRate > 0 {
		seed := cfg.Validation.GateSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		gate = validate.NewRandomGate(cfg.Validation.GateRate, seed)
	}
	pipeline := validate.NewPipeline(docOracle, gate, time.Now)

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	ctxRepo := postgres.NewContextPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo, ctxRepo, pipeline)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	// Prometheus request counter plus the /metrics scrape endpoint
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register prometheus metrics: %v", err)
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
