package postgres_test

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/goto/salt/log"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/datatrail-io/sextant/internal/store/postgres"
)

const (
	pgHost     = "localhost"
	pgUsername = "test_user"
	pgPassword = "test_pass"
	pgName     = "test_db"
)

func newTestClient(logger log.Logger) (*postgres.Client, *dockertest.Pool, *dockertest.Resource, error) {
	opts := &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "13",
		Env: []string{
			"POSTGRES_PASSWORD=" + pgPassword,
			"POSTGRES_USER=" + pgUsername,
			"POSTGRES_DB=" + pgName,
		},
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not create dockertest pool: %w", err)
	}

	resource, err := pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not start resource: %w", err)
	}

	port, err := strconv.Atoi(resource.GetPort("5432/tcp"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not parse external port of container to int: %w", err)
	}

	// Tell docker to hard kill the container in 120 seconds
	if err := resource.Expire(120); err != nil {
		return nil, nil, nil, err
	}

	cfg := postgres.Config{
		Host:     pgHost,
		Port:     port,
		Name:     pgName,
		User:     pgUsername,
		Password: pgPassword,
		SSLMode:  "disable",
	}

	// exponential backoff-retry, because the application in the container
	// might not be ready to accept connections yet
	pool.MaxWait = 60 * time.Second
	if err := pool.Retry(func() error {
		db, err := sql.Open("pgx", cfg.ConnectionURL().String())
		if err != nil {
			return err
		}
		defer db.Close()

		return db.Ping()
	}); err != nil {
		return nil, nil, nil, fmt.Errorf("could not connect to docker: %w", err)
	}

	pgClient, err := postgres.NewClient(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if _, err := pgClient.Migrate(cfg); err != nil {
		logger.Error("error migrating test db", "error", err)
		return nil, nil, nil, err
	}

	return pgClient, pool, resource, nil
}

func purgeDocker(pool *dockertest.Pool, resource *dockertest.Resource) error {
	if err := pool.Purge(resource); err != nil {
		return fmt.Errorf("could not purge resource: %w", err)
	}
	return nil
}
