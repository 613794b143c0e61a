package server

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tablescope/internal/config"
	"tablescope/internal/database"
	"tablescope/internal/handlers"
	"tablescope/internal/logging"
	"tablescope/internal/middlewares"
	"tablescope/internal/repositories"
	"tablescope/internal/routes"
	"tablescope/internal/services"
)

// Services is the dependency graph shared by the HTTP server and the CLI.
type Services struct {
	Schema *services.SchemaService
	Table  *services.TableService
}

func NewServices(cfg *config.Config, db database.Querier, logger *zap.Logger) *Services {
	schemaRepo := repositories.NewSchemaRepository(db)
	tableRepo := repositories.NewTableRepository(db)

	schemaService := services.NewSchemaService(schemaRepo, cfg.Database.Schema, cfg.Database.QueryTimeout, logger)
	tableService := services.NewTableService(schemaService, tableRepo, cfg.Database.QueryTimeout, cfg.Browse.MaxPageSize, logger)

	return &Services{Schema: schemaService, Table: tableService}
}

// NewRouter wires handlers and middleware onto a fresh gin engine.
func NewRouter(cfg *config.Config, db database.Querier, logger *zap.Logger) *gin.Engine {
	logger = logging.OrNop(logger)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := NewServices(cfg, db, logger)
	tableHandler := handlers.NewTableHandler(svc.Table, svc.Schema, cfg.Browse.DefaultPageSize)
	schemaHandler := handlers.NewSchemaHandler(svc.Schema)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	routes.RegisterRoutes(router, tableHandler, schemaHandler)
	return router
}

func NewServer(cfg *config.Config, db database.Querier, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, db, logger),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Database.QueryTimeout + 10*time.Second,
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middlewares.RequestIDHeader},
		ExposeHeaders: []string{middlewares.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
