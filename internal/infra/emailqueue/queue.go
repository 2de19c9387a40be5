// Package emailqueue inspects the outbound email queue of the shop under
// test. Jobs are JSON documents kept either in a Redis list or in a NATS
// JetStream stream.
package emailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

// Open connects to the backend named by cfg.Backend.
func Open(ctx context.Context, cfg domain.QueueConfig, log *slog.Logger) (ports.EmailQueue, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	switch cfg.Backend {
	case "", "redis":
		return NewRedis(cfg, log)
	case "nats":
		return NewNATS(ctx, cfg, log)
	default:
		return nil, &domain.OpError{
			Op:   "emailqueue.open",
			Kind: domain.KindUnsupported,
			Err:  fmt.Errorf("unsupported queue backend %q", cfg.Backend),
		}
	}
}

// FindJob returns the first job for recipient whose template contains
// templateContains. Recipients compare case-insensitively.
func FindJob(jobs []domain.EmailJob, recipient, templateContains string) (domain.EmailJob, bool) {
	for _, j := range jobs {
		if !strings.EqualFold(j.Recipient, recipient) {
			continue
		}
		if strings.Contains(strings.ToLower(j.Template), strings.ToLower(templateContains)) {
			return j, true
		}
	}
	return domain.EmailJob{}, false
}

// decode parses raw jobs, skipping entries that are not valid JSON.
func decode(log *slog.Logger, raw [][]byte) []domain.EmailJob {
	jobs := make([]domain.EmailJob, 0, len(raw))
	for i, b := range raw {
		var j domain.EmailJob
		if err := json.Unmarshal(b, &j); err != nil {
			log.Warn("skipping malformed email job", "index", i, "err", err)
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs
}
