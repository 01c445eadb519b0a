package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ayushbridge/bridge/internal/config"
	"github.com/ayushbridge/bridge/internal/domain/diagnosis"
	"github.com/ayushbridge/bridge/internal/domain/mapping"
	"github.com/ayushbridge/bridge/internal/domain/terminology"
	"github.com/ayushbridge/bridge/internal/platform/db"
	"github.com/ayushbridge/bridge/internal/platform/fhir"
	"github.com/ayushbridge/bridge/internal/platform/icd"
	"github.com/ayushbridge/bridge/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bridge-server",
		Short: "NAMASTE / ICD-11 terminology gateway",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(mapCmd())
	rootCmd.AddCommand(artifactsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openPool loads the config and connects to the database. Used by the
// one-shot commands; serve does its own wiring so it can validate more.
func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the terminology gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the NAMASTE CSV export into the concepts table",
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")

			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if csvPath == "" {
				csvPath = cfg.NAMASTECSVPath
			}
			if csvPath == "" {
				return fmt.Errorf("--csv or NAMASTE_CSV_PATH is required")
			}

			concepts, err := terminology.LoadNAMASTECSV(csvPath)
			if err != nil {
				return err
			}

			count, err := terminology.ImportConcepts(ctx, pool, concepts)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d concept(s) from %s.\n", count, csvPath)
			return nil
		},
	}
	cmd.Flags().String("csv", "", "Path to the NAMASTE morbidity-code CSV export")
	return cmd
}

func mapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Manage NAMASTE to ICD-11 code mappings",
	}

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Rebuild mappings by fuzzy-matching NAMASTE terms against the WHO ICD-11 API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if !cfg.ICDConfigured() {
				return fmt.Errorf("ICD_CLIENT_ID and ICD_CLIENT_SECRET are required to build mappings")
			}

			concepts, err := sourceConcepts(ctx, cfg, pool)
			if err != nil {
				return err
			}

			sources := make([]mapping.SourceTerm, 0, len(concepts))
			for _, c := range concepts {
				sources = append(sources, mapping.SourceTerm{Code: c.Code, Term: c.Display})
			}

			icdClient := icd.NewClient(icd.Config{
				BaseURL:      cfg.ICDBaseURL,
				TokenURL:     cfg.ICDTokenURL,
				ClientID:     cfg.ICDClientID,
				ClientSecret: cfg.ICDClientSecret,
			})
			svc := mapping.NewService(mapping.NewRepoPG(pool), icdClient, logger)

			count, err := svc.Build(ctx, sources)
			if err != nil {
				return err
			}
			fmt.Printf("Built %d mapping(s) from %d source term(s).\n", count, len(sources))
			return nil
		},
	}
	cmd.AddCommand(buildCmd)

	return cmd
}

// sourceConcepts prefers the CSV export when configured, falling back to the
// NAMASTE concepts already seeded in the database.
func sourceConcepts(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) ([]*terminology.Concept, error) {
	if cfg.NAMASTECSVPath != "" {
		return terminology.LoadNAMASTECSV(cfg.NAMASTECSVPath)
	}

	repo := terminology.NewConceptRepoPG(pool)
	concepts, err := repo.Search(ctx, []string{terminology.SystemNAMASTE}, "", 100000)
	if err != nil {
		return nil, err
	}
	if len(concepts) == 0 {
		return nil, fmt.Errorf("no NAMASTE concepts found; run seed first or set NAMASTE_CSV_PATH")
	}
	return concepts, nil
}

func artifactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Generate FHIR terminology artifacts",
	}

	codeSystemCmd := &cobra.Command{
		Use:   "codesystem",
		Short: "Generate the NAMASTE CodeSystem resource from the CSV export",
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			out, _ := cmd.Flags().GetString("out")

			if csvPath == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				csvPath = cfg.NAMASTECSVPath
			}
			if csvPath == "" {
				return fmt.Errorf("--csv or NAMASTE_CSV_PATH is required")
			}

			concepts, err := terminology.LoadNAMASTECSV(csvPath)
			if err != nil {
				return err
			}

			rows := make([]fhir.ConceptRow, 0, len(concepts))
			for _, c := range concepts {
				rows = append(rows, fhir.ConceptRow{
					Code:       c.Code,
					Display:    c.Display,
					Definition: c.Definition,
				})
			}

			cs, err := fhir.BuildCodeSystem(fhir.NAMASTEMeta(), rows, time.Now().UTC())
			if err != nil {
				return err
			}
			if err := writeJSON(out, cs); err != nil {
				return err
			}
			fmt.Printf("Wrote CodeSystem with %d top-level concept(s) to %s.\n", len(cs.Concept), out)
			return nil
		},
	}
	codeSystemCmd.Flags().String("csv", "", "Path to the NAMASTE morbidity-code CSV export")
	codeSystemCmd.Flags().String("out", "namaste_codesystem.json", "Output file")
	cmd.AddCommand(codeSystemCmd)

	conceptMapCmd := &cobra.Command{
		Use:   "conceptmap",
		Short: "Generate the NAMASTE to ICD-11 ConceptMap resource from stored mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			logger := newLogger()

			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := mapping.NewService(mapping.NewRepoPG(pool), nil, logger)
			rows, err := svc.ConceptMapRows(ctx)
			if err != nil {
				return err
			}

			cm, err := fhir.BuildConceptMap(fhir.NAMASTEToICD11Meta(), rows, time.Now().UTC())
			if err != nil {
				return err
			}
			if err := writeJSON(out, cm); err != nil {
				return err
			}
			fmt.Printf("Wrote ConceptMap with %d element(s) to %s.\n", len(cm.Group[0].Element), out)
			return nil
		},
	}
	conceptMapCmd.Flags().String("out", "namaste_icd11_conceptmap.json", "Output file")
	cmd.AddCommand(conceptMapCmd)

	return cmd
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var icdClient *icd.Client
	if cfg.ICDConfigured() {
		icdClient = icd.NewClient(icd.Config{
			BaseURL:      cfg.ICDBaseURL,
			TokenURL:     cfg.ICDTokenURL,
			ClientID:     cfg.ICDClientID,
			ClientSecret: cfg.ICDClientSecret,
		})
		logger.Info().Msg("WHO ICD-11 API client configured")
	} else {
		logger.Warn().Msg("ICD credentials not set; mapping builds and upstream probe disabled")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// API groups
	apiV1 := e.Group("/api/v1")
	fhirGroup := e.Group("/fhir")

	// Rate limiting middleware
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	fhirGroup.Use(middleware.RateLimit(rateLimitCfg))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		health := map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		}
		if err := pool.Ping(c.Request().Context()); err != nil {
			health["status"] = "degraded"
			health["database"] = "unreachable"
			return c.JSON(http.StatusServiceUnavailable, health)
		}
		health["database"] = "ok"

		if icdClient != nil {
			probeCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			if err := icdClient.Ping(probeCtx); err != nil {
				health["status"] = "degraded"
				health["icd_api"] = "unreachable"
			} else {
				health["icd_api"] = "ok"
			}
		}
		return c.JSON(http.StatusOK, health)
	})

	// Terminology domain
	conceptRepo := terminology.NewConceptRepoPG(pool)
	termSvc := terminology.NewService(conceptRepo, cfg.SearchLimit)
	termHandler := terminology.NewHandler(termSvc)
	termHandler.RegisterRoutes(e, apiV1, fhirGroup)

	// Mapping domain
	mappingRepo := mapping.NewRepoPG(pool)
	var icdSearcher mapping.ICDSearcher
	if icdClient != nil {
		icdSearcher = icdClient
	}
	mappingSvc := mapping.NewService(mappingRepo, icdSearcher, logger)
	mappingHandler := mapping.NewHandler(mappingSvc)
	mappingHandler.RegisterRoutes(apiV1, fhirGroup)

	// Diagnosis domain
	diagRepo := diagnosis.NewRepoPG(pool)
	diagSvc := diagnosis.NewService(diagRepo, conceptRepo, mappingRepo)
	diagHandler := diagnosis.NewHandler(diagSvc)
	diagHandler.RegisterRoutes(e, apiV1)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
