package emailqueue

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiru781/cursior/internal/domain"
)

func TestDecodeSkipsMalformed(t *testing.T) {
	jobs := decode(slog.New(slog.DiscardHandler), [][]byte{
		[]byte(`{"recipient":"a@test.com","template":"welcome_email"}`),
		[]byte(`not json`),
		[]byte(`{"recipient":"b@test.com","template":"order_confirmation","data":{"order_id":"ORD1"}}`),
	})
	require.Len(t, jobs, 2)
	assert.Equal(t, "ORD1", jobs[1].Data["order_id"])
}

func TestFindJob(t *testing.T) {
	jobs := []domain.EmailJob{
		{Recipient: "a@test.com", Template: "order_confirmation"},
		{Recipient: "A@Test.com", Template: "welcome_email"},
	}

	j, ok := FindJob(jobs, "a@test.com", "Welcome")
	require.True(t, ok)
	assert.Equal(t, "welcome_email", j.Template)

	_, ok = FindJob(jobs, "b@test.com", "welcome")
	assert.False(t, ok)

	j, ok = FindJob(jobs, "a@test.com", "")
	require.True(t, ok)
	assert.Equal(t, "order_confirmation", j.Template)
}

func TestOpen(t *testing.T) {
	q, err := Open(context.Background(), domain.QueueConfig{Backend: "redis", RedisURL: "redis://localhost:6379/0"}, nil)
	require.NoError(t, err)
	assert.NoError(t, q.Close())

	_, err = Open(context.Background(), domain.QueueConfig{Backend: "redis", RedisURL: "http://nope"}, nil)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))

	_, err = Open(context.Background(), domain.QueueConfig{Backend: "kafka"}, nil)
	assert.True(t, domain.IsKind(err, domain.KindUnsupported))
}
