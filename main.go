package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ddionrails/config"
	"ddionrails/database"
	"ddionrails/services"
)

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogMode == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	logging, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	db, err := database.Open(cfg, logging)
	if err != nil {
		logging.Fatal("Failed to open database", zap.Error(err))
	}

	runner := services.NewImportRunner(cfg, db, logging, services.LogIndexer{Logger: logging})
	catalog := services.NewCatalogService(db, logging)

	router := newRouter(cfg, runner, catalog, logging)

	// Regelmäßiger Import aller konfigurierten Studien
	cronScheduler := cron.New()
	if studies := cfg.Studies(); len(studies) > 0 {
		_, err := cronScheduler.AddFunc(cfg.ImportCronSchedule, func() {
			runScheduledImports(context.Background(), runner, studies, logging)
		})
		if err != nil {
			logging.Fatal("Invalid import cron schedule", zap.String("schedule", cfg.ImportCronSchedule), zap.Error(err))
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
		logging.Info("Scheduled imports enabled", zap.Strings("studies", studies), zap.String("schedule", cfg.ImportCronSchedule))
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort), zap.String("import_source", cfg.ImportSource))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, runner *services.ImportRunner, catalog *services.CatalogService, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/")
	api.Use(apiKeyAuthMiddleware(cfg))
	setupImportRoutes(api, runner, log)
	setupCatalogRoutes(api, catalog, log)
	return router
}

func runScheduledImports(ctx context.Context, runner *services.ImportRunner, studies []string, log *zap.Logger) {
	for _, study := range studies {
		log.Info("Running scheduled import", zap.String("study", study))
		report, err := runner.ImportAll(ctx, study)
		if err != nil {
			log.Error("Scheduled import failed", zap.String("study", study), zap.Error(err))
			continue
		}
		log.Info("Scheduled import completed", zap.String("study", study), zap.Strings("skipped", report.Skipped()))
	}
}

// statusFor bildet Importfehler auf HTTP-Statuscodes ab.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownEntity),
		errors.Is(err, services.ErrMissingInput),
		errors.Is(err, services.ErrStudyNotFound),
		errors.Is(err, services.ErrVariableNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrImportRunning):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidRecord),
		errors.Is(err, services.ErrDatasetNotFound),
		errors.Is(err, services.ErrConceptNotFound),
		errors.Is(err, services.ErrInstrumentNotFound),
		errors.Is(err, services.ErrQuestionNotFound):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func setupImportRoutes(router *gin.RouterGroup, runner *services.ImportRunner, log *zap.Logger) {
	rg := router.Group("/imports")

	rg.GET("/stages", func(c *gin.Context) {
		c.JSON(http.StatusOK, services.Stages())
	})

	// Gesamtimport; ohne ?wait=true läuft er im Hintergrund
	rg.POST("/:study", func(c *gin.Context) {
		study := c.Param("study")
		if c.Query("wait") != "true" {
			go func() {
				if _, err := runner.ImportAll(context.Background(), study); err != nil {
					log.Error("Background import failed", zap.String("study", study), zap.Error(err))
				}
			}()
			c.JSON(http.StatusAccepted, gin.H{"study": study, "status": "started"})
			return
		}

		report, err := runner.ImportAll(c.Request.Context(), study)
		if report == nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		status := http.StatusOK
		if err != nil {
			status = http.StatusMultiStatus
		}
		c.JSON(status, report)
	})

	rg.POST("/:study/:entity", func(c *gin.Context) {
		study, entity := c.Param("study"), c.Param("entity")
		if err := runner.ImportEntity(c.Request.Context(), study, entity); err != nil {
			log.Warn("Entity import failed", zap.String("study", study), zap.String("entity", entity), zap.Error(err))
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"study": study, "entity": entity, "status": "imported"})
	})
}

func setupCatalogRoutes(router *gin.RouterGroup, catalog *services.CatalogService, log *zap.Logger) {
	rg := router.Group("/studies")

	rg.GET("", func(c *gin.Context) {
		studies, err := catalog.Studies(c.Request.Context())
		if err != nil {
			log.Error("Database query for studies failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, studies)
	})

	rg.GET("/:study", func(c *gin.Context) {
		study, err := catalog.GetStudy(c.Request.Context(), c.Param("study"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, study)
	})

	rg.GET("/:study/publications", func(c *gin.Context) {
		refs, err := catalog.PublicationReferences(c.Request.Context(), c.Param("study"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, refs)
	})

	rg.GET("/:study/variables/:dataset/:variable", func(c *gin.Context) {
		ctx := c.Request.Context()
		variable, err := catalog.GetVariable(ctx, c.Param("study"), c.Param("dataset"), c.Param("variable"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		related, err := catalog.RelatedVariablesByPeriod(ctx, variable)
		if err != nil {
			log.Error("Related variables query failed", zap.Stringer("variable", variable), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		targets, err := catalog.TargetVariablesByPeriod(ctx, variable)
		if err != nil {
			log.Error("Target variables query failed", zap.Stringer("variable", variable), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		origins, err := catalog.OriginVariablesByPeriod(ctx, variable)
		if err != nil {
			log.Error("Origin variables query failed", zap.Stringer("variable", variable), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"variable":          variable,
			"categories":        variable.CategoryList(),
			"translation_table": variable.TranslationTable(),
			"related":           related,
			"targets":           targets,
			"origins":           origins,
		})
	})
}
