package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

type Redis struct {
	Client *redis.Client

	pool     *dockertest.Pool
	resource *dockertest.Resource
}

func StartRedis() (*Redis, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDockerUnavailable, err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDockerUnavailable, err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: "redis", Tag: "7-alpine"},
		func(hc *docker.HostConfig) {
			hc.AutoRemove = true
			hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
		})
	if err != nil {
		return nil, fmt.Errorf("start redis: %w", err)
	}
	_ = resource.Expire(300)

	r := &Redis{pool: pool, resource: resource}
	pool.MaxWait = 30 * time.Second
	if err := pool.Retry(func() error {
		client := redis.NewClient(&redis.Options{Addr: resource.GetHostPort("6379/tcp")})
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return err
		}
		r.Client = client
		return nil
	}); err != nil {
		_ = pool.Purge(resource)
		return nil, fmt.Errorf("redis never became ready: %w", err)
	}
	return r, nil
}

func (r *Redis) Close() {
	if r.Client != nil {
		r.Client.Close()
	}
	_ = r.pool.Purge(r.resource)
}
