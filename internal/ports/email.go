package ports

import (
	"context"
	"time"

	"github.com/chiru781/cursior/internal/domain"
)

// Mailbox checks delivered mail.
type Mailbox interface {
	WaitForEmail(ctx context.Context, recipient, subjectContains string, timeout time.Duration) (bool, error)
}

// EmailQueue lists outbound email jobs waiting in the application's queue.
type EmailQueue interface {
	Jobs(ctx context.Context) ([]domain.EmailJob, error)
	Close() error
}

// Notifier sends mail on behalf of the suite.
type Notifier interface {
	Send(ctx context.Context, msg domain.OutgoingEmail) error
}
