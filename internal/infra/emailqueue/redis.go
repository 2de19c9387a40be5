package emailqueue

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

type Redis struct {
	client *redis.Client
	key    string
	log    *slog.Logger
}

var _ ports.EmailQueue = (*Redis)(nil)

func NewRedis(cfg domain.QueueConfig, log *slog.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, &domain.OpError{Op: "emailqueue.redis", Kind: domain.KindInvalidConfig, Path: cfg.RedisURL, Err: err}
	}
	key := cfg.RedisKey
	if key == "" {
		key = "email_jobs"
	}
	return &Redis{client: redis.NewClient(opt), key: key, log: log}, nil
}

// Jobs reads the whole list without consuming it.
func (r *Redis) Jobs(ctx context.Context) ([]domain.EmailJob, error) {
	items, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, &domain.OpError{Op: "emailqueue.redis.lrange", Kind: domain.KindExecution, Path: r.key, Err: err}
	}
	raw := make([][]byte, len(items))
	for i, s := range items {
		raw[i] = []byte(s)
	}
	jobs := decode(r.log, raw)
	r.log.Debug("email jobs read", "backend", "redis", "key", r.key, "count", len(jobs))
	return jobs, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
