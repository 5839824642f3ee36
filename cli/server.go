package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/log"
	"github.com/spf13/cobra"

	"github.com/datatrail-io/sextant/core/lineage"
	sextantserver "github.com/datatrail-io/sextant/internal/server"
	"github.com/datatrail-io/sextant/internal/store/postgres"
)

// Version of the current build. overridden by the build system.
// see "Makefile" for more information
var (
	Version string
)

func serverCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "server <command>",
		Aliases: []string{"s"},
		Short:   "Run sextant server",
		Long:    "Server management commands.",
		Example: heredoc.Doc(`
			$ sextant server start
			$ sextant server start -c ./config.yaml
			$ sextant server migrate
			$ sextant server migrate -c ./config.yaml
		`),
	}

	cmd.AddCommand(
		serverStartCommand(cfg),
		serverMigrateCommand(cfg),
	)

	return cmd
}

func serverStartCommand(cfg *Config) *cobra.Command {
	c := &cobra.Command{
		Use:     "start",
		Short:   "Start server on default port 8080",
		Example: "sextant server start",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runServer(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("run server: %w", err)
			}
			return nil
		},
	}

	return c
}

func serverMigrateCommand(cfg *Config) *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Run storage migration",
		Example: heredoc.Doc(`
			$ sextant server migrate
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), cfg)
		},
	}

	return c
}

func runServer(ctx context.Context, config *Config) error {
	logger := initLogger(config.LogLevel)
	logger.Info("sextant starting", "version", Version)

	pgClient, err := initPostgres(logger, config)
	if err != nil {
		return err
	}

	catalogRepository, err := postgres.NewCatalogRepository(pgClient)
	if err != nil {
		return fmt.Errorf("create new catalog repository: %w", err)
	}
	dependencyRepository, err := postgres.NewDependencyRepository(pgClient)
	if err != nil {
		return fmt.Errorf("create new dependency repository: %w", err)
	}

	lineageService := lineage.NewService(lineage.ServiceDeps{
		Objects:      catalogRepository,
		Dependencies: dependencyRepository,
	})

	return sextantserver.Serve(
		ctx,
		config.Service,
		logger,
		pgClient,
		catalogRepository,
		lineageService,
	)
}

func runMigrations(ctx context.Context, config *Config) error {
	logger := initLogger(config.LogLevel)
	logger.Info("sextant is migrating", "version", Version)

	logger.Info("Migrating Postgres...")
	if err := migratePostgres(logger, config); err != nil {
		return err
	}
	logger.Info("Migration Postgres done.")

	return nil
}

func migratePostgres(logger log.Logger, config *Config) error {
	logger.Info("Initiating Postgres client...")

	pgClient, err := postgres.NewClient(config.DB)
	if err != nil {
		logger.Error("failed to prepare migration", "error", err)
		return err
	}
	defer pgClient.Close()

	ver, err := pgClient.Migrate(config.DB)
	if err != nil {
		return fmt.Errorf("problem with migration %w", err)
	}
	logger.Info("Migration done", "version", ver)

	return nil
}

func initLogger(logLevel string) *log.Logrus {
	logger := log.NewLogrus(
		log.LogrusWithLevel(logLevel),
		log.LogrusWithWriter(os.Stdout),
	)
	return logger
}

func initPostgres(logger log.Logger, config *Config) (*postgres.Client, error) {
	pgClient, err := postgres.NewClient(config.DB)
	if err != nil {
		return nil, fmt.Errorf("error creating postgres client: %w", err)
	}
	logger.Info("connected to postgres server", "host", config.DB.Host, "port", config.DB.Port)

	return pgClient, nil
}
