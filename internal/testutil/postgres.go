// Package testutil starts disposable infrastructure for integration tests.
package testutil

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

var ErrDockerUnavailable = errors.New("docker daemon is not reachable")

type Postgres struct {
	DB  *sqlx.DB
	URL string

	pool     *dockertest.Pool
	resource *dockertest.Resource
}

// StartPostgres runs a throwaway postgres container and waits until it
// accepts connections.
func StartPostgres() (*Postgres, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDockerUnavailable, err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDockerUnavailable, err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=community_test",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}
	_ = resource.Expire(300)

	hostPort := resource.GetHostPort("5432/tcp")
	host, port, _ := strings.Cut(hostPort, ":")
	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=community_test sslmode=disable", host, port)

	pg := &Postgres{
		URL:      fmt.Sprintf("postgres://test:test@%s/community_test?sslmode=disable", hostPort),
		pool:     pool,
		resource: resource,
	}

	pool.MaxWait = 60 * time.Second
	if err := pool.Retry(func() error {
		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			return err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return err
		}
		pg.DB = db
		return nil
	}); err != nil {
		_ = pool.Purge(resource)
		return nil, fmt.Errorf("postgres never became ready: %w", err)
	}
	return pg, nil
}

func (p *Postgres) Close() {
	if p.DB != nil {
		p.DB.Close()
	}
	_ = p.pool.Purge(p.resource)
}

// Reset empties every table and restarts the id sequences.
func (p *Postgres) Reset(t testing.TB) {
	t.Helper()
	_, err := p.DB.Exec("TRUNCATE media, tasks, clients, staffs, companies, users RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
}
