package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"robodelivery/cmd"
	"robodelivery/internal/adapters/out/postgres/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "robodelivery",
		Usage: "robot delivery order service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before reading the environment, skipped when missing",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API, dispatch workers, cron jobs and telemetry consumer",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "migrate",
						Value: true,
						Usage: "apply pending migrations before serving (postgres only)",
					},
				},
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "revert every migration instead"},
				},
				Action: migrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

func serve(c *cli.Context) error {
	config, err := cmd.LoadConfig(c.String("env-file"))
	if err != nil {
		return err
	}
	logger, err := newLogger(config)
	if err != nil {
		return err
	}

	var gormDB *gorm.DB
	if config.StorageDriver == cmd.StorageDriverPostgres {
		if c.Bool("migrate") {
			version, err := migrations.Up(config.DatabaseURL())
			if err != nil {
				return err
			}
			logger.Info("schema is current", "version", version)
		}

		gormDB, err = openDatabase(config)
		if err != nil {
			return err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
	}

	root, err := cmd.NewCompositionRoot(config, logger, gormDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := root.Close(); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	router, err := root.CreateRouter()
	if err != nil {
		return err
	}
	jobManager, err := root.CreateJobManager()
	if err != nil {
		return err
	}
	consumer, err := root.CreateTelemetryConsumer()
	if err != nil {
		return err
	}
	defer consumer.Close()
	worker := root.CreateDispatchWorker()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		return consumer.Run(ctx)
	})
	g.Go(func() error {
		addr := fmt.Sprintf("0.0.0.0:%s", config.HTTPPort)
		logger.Info("http server listening", "addr", addr, "storage", config.StorageDriver)
		if err := router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return router.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func migrate(c *cli.Context) error {
	config, err := cmd.LoadConfig(c.String("env-file"))
	if err != nil {
		return err
	}
	if config.StorageDriver != cmd.StorageDriverPostgres {
		return fmt.Errorf("migrations need STORAGE_DRIVER=%s", cmd.StorageDriverPostgres)
	}

	if c.Bool("down") {
		return migrations.Down(config.DatabaseURL())
	}

	version, err := migrations.Up(config.DatabaseURL())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "schema version %d\n", version)
	return nil
}

func newLogger(config cmd.Config) (*slog.Logger, error) {
	level, err := config.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})), nil
}

func openDatabase(config cmd.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgresdriver.Open(config.DatabaseURL()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}
