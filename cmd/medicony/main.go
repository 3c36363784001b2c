package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Freeeeeet/medicony/internal/app"
	"github.com/Freeeeeet/medicony/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli держит зависимости, собранные перед запуском команды
type cli struct {
	app *app.App
}

func main() {
	c := &cli{}
	root := c.rootCmd()
	err := root.Execute()

	if c.app != nil {
		c.app.Close()
		_ = c.app.Logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "medicony",
		Short:             "Medicover appointment watcher and autobooker",
		SilenceUsage:      true,
		PersistentPreRunE: c.prepare,
	}

	root.AddCommand(
		c.findAppointmentCmd(),
		c.bookAppointmentCmd(),
		c.listAppointmentsCmd(),
		c.cancelAppointmentCmd(),
		c.addWatchCmd(),
		c.editWatchCmd(),
		c.removeWatchCmd(),
		c.listWatchesCmd(),
		c.listFiltersCmd(),
		c.listAccountsCmd(),
		c.startCmd(),
		c.migrateCmd(),
	)
	return root
}

// prepare грузит конфиг и поднимает то, что нужно вызванной команде
func (c *cli) prepare(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogPath)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	kind, err := app.ParseCommandKind(cmd.Name())
	if err != nil {
		return err
	}

	logger.Info("Starting MediCony",
		zap.String("command", kind.String()),
		zap.String("environment", cfg.Environment),
		zap.Any("config", cfg.EnvInfo()),
	)

	a, err := app.New(cmd.Context(), cfg, kind, logger)
	if err != nil {
		logger.Error("Failed to initialize", zap.String("command", kind.String()), zap.Error(err))
		_ = logger.Sync()
		return err
	}
	c.app = a
	return nil
}

// logEntities пишет многострочные описания между разделителями
func logEntities(logger *zap.Logger, entities []string) {
	separator := strings.Repeat("-", 50)
	for _, e := range entities {
		logger.Info(separator)
		for _, line := range strings.Split(e, "\n") {
			logger.Info(line)
		}
	}
	if len(entities) > 0 {
		logger.Info(separator)
	}
}
