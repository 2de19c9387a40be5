package emailqueue

import (
	"context"
	"log/slog"
	"time"

	natspkg "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

const (
	fetchBatch   = 256
	fetchMaxWait = time.Second
)

type NATS struct {
	nc      *natspkg.Conn
	js      jetstream.JetStream
	stream  string
	subject string
	log     *slog.Logger
}

var _ ports.EmailQueue = (*NATS)(nil)

func NewNATS(ctx context.Context, cfg domain.QueueConfig, log *slog.Logger) (*NATS, error) {
	_ = ctx
	nc, err := natspkg.Connect(cfg.NATSURL, natspkg.Name("cursior"))
	if err != nil {
		return nil, &domain.OpError{Op: "emailqueue.nats.connect", Kind: domain.KindExecution, Path: cfg.NATSURL, Err: err}
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, &domain.OpError{Op: "emailqueue.nats.jetstream", Kind: domain.KindExecution, Err: err}
	}
	return &NATS{nc: nc, js: js, stream: cfg.Stream, subject: cfg.Subject, log: log}, nil
}

// Jobs replays the stream through a fresh ordered consumer, so nothing is
// acknowledged or removed.
func (n *NATS) Jobs(ctx context.Context) ([]domain.EmailJob, error) {
	const op = "emailqueue.nats.jobs"

	st, err := n.js.Stream(ctx, n.stream)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: n.stream, Err: err}
	}
	info, err := st.Info(ctx)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: n.stream, Err: err}
	}

	cfg := jetstream.OrderedConsumerConfig{DeliverPolicy: jetstream.DeliverAllPolicy}
	if n.subject != "" {
		cfg.FilterSubjects = []string{n.subject}
	}
	cons, err := n.js.OrderedConsumer(ctx, n.stream, cfg)
	if err != nil {
		return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: n.stream, Err: err}
	}

	var raw [][]byte
	remaining := info.State.Msgs
	for remaining > 0 {
		batch, err := cons.Fetch(int(min(remaining, fetchBatch)), jetstream.FetchMaxWait(fetchMaxWait))
		if err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: n.stream, Err: err}
		}
		var got uint64
		for msg := range batch.Messages() {
			raw = append(raw, msg.Data())
			got++
		}
		if err := batch.Error(); err != nil {
			return nil, &domain.OpError{Op: op, Kind: domain.KindExecution, Path: n.stream, Err: err}
		}
		if got == 0 {
			break
		}
		remaining -= min(got, remaining)
	}

	jobs := decode(n.log, raw)
	n.log.Debug("email jobs read", "backend", "nats", "stream", n.stream, "count", len(jobs))
	return jobs, nil
}

func (n *NATS) Close() error {
	n.nc.Close()
	return nil
}
