package cli

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"golang.org/x/sync/errgroup"

	aggsql "panopticon-aggregator/internal/aggregation/adapters/sqlstore"
	statsHttp "panopticon-aggregator/internal/dailystats/adapters/http/fiber"
	statsRepo "panopticon-aggregator/internal/dailystats/adapters/sqlstore"
	statsUsecase "panopticon-aggregator/internal/dailystats/core/usecase"

	_ "panopticon-aggregator/docs"
)

const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command: the daily aggregation loop plus
// the read API.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Aggregate daily in a loop and serve the read API",
		Long: `Run a catch-up pass immediately and then once every 24 hours. Failed
passes are logged and retried on the next cycle.

When server.addr is set the aggregates are also served over HTTP:
  GET /aggregates?from=&to=
  GET /aggregates/latest
  GET /aggregates/{day}
  GET /health
  GET /docs/*`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(rootOpts, cmd)
		},
	}
}

func serve(opts *RootOptions, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.agg.driver.Serve(gctx)
	})

	if addr := rt.cfg.Server.Addr; addr != "" {
		app := newHTTPApp(rt.db, rt.dialect)

		g.Go(func() error {
			rt.logger.Info("http server started", "addr", addr)
			return app.Listen(addr)
		})

		g.Go(func() error {
			<-gctx.Done()
			rt.logger.Info("shutting down http server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		rt.logger.Error("serve stopped", "error", err)
		return err
	}

	rt.logger.Info("aggregator exiting")
	return nil
}

// newHTTPApp wires the read API on top of db.
func newHTTPApp(db *sql.DB, dialect aggsql.Dialect) *fiber.App {
	repository := statsRepo.NewDailyStatsRepository(statsRepo.NewSQLDB(db), dialect)
	getDailyStatsUC := statsUsecase.NewGetDailyStatsUseCase(repository)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	statsHttp.NewDailyStatsHandler(getDailyStatsUC).Register(app)

	// Swagger
	app.Get("/docs/*", fiberSwagger.WrapHandler)

	return app
}
