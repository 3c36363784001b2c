package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/medicony/internal/app"
	"github.com/Freeeeeet/medicony/internal/controller"
	"github.com/Freeeeeet/medicony/internal/controller/handlers"
	"github.com/Freeeeeet/medicony/internal/controller/state"
	"github.com/Freeeeeet/medicony/internal/httpserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (c *cli) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the watch daemon with the Telegram bot and the ops server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.ClearStale(ctx); err != nil {
				a.Logger.Warn("Failed to clear stale records", zap.Error(err))
			}

			scheduler := app.NewScheduler(a.Evaluator, a.Config.SleepPeriod(), a.Logger)
			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return scheduler.Run(ctx)
			})

			if a.Bot != nil {
				h := handlers.NewHandlers(a.Watches, a.Appointments, scheduler, state.NewManager(), handlers.Config{
					ChatID:    a.Config.TelegramChatID,
					LogPath:   a.Config.LogPath,
					Accounts:  a.Config.Aliases(),
					Suggested: a.Config.TelegramAddHint,
				}, a.Logger)
				botController := controller.NewBotController(a.Bot, h, a.Logger)
				if err := botController.RegisterHandlers(ctx); err != nil {
					a.Logger.Warn("Failed to register bot commands", zap.Error(err))
				}
				g.Go(func() error {
					return botController.Start(ctx)
				})
			}

			if a.Config.HTTPAddr != "" {
				srv := httpserver.New(httpserver.Config{
					Addr:     a.Config.HTTPAddr,
					Gatherer: a.Registry,
					Waker:    scheduler,
					Database: a.Pool,
				}, a.Logger)
				g.Go(func() error {
					return srv.Run(ctx)
				})
			}

			a.Logger.Info("MediCony daemon started", zap.Duration("sleep_period", a.Config.SleepPeriod()))
			err := g.Wait()
			a.Logger.Info("MediCony daemon stopped")
			return err
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c.app.Logger.Info("Migrations applied", zap.String("path", c.app.Config.MigrationsPath))
			return nil
		},
	}
}
