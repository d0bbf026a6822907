package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"custodia/pkg/domain"
)

// Store persists the append-only event log.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByVault(ctx context.Context, vault domain.Address) ([]Event, error)
}

// Sink receives a copy of every stored event for external delivery (Kafka).
// Sink delivery is best-effort: the store append is the operation's contract,
// the sink is not.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher captures structured vault events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// WithSink adds an external fan-out target.
func (p *Publisher) WithSink(sink Sink) *Publisher {
	p.sink = sink
	return p
}

// Emit assigns identity and timestamp, persists the event, and fans it out.
// A store failure is returned to the caller; a sink failure is only logged.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.sink != nil {
		if err := p.sink.Publish(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "event sink publish failed",
				"vault", event.Vault.String(),
				"kind", string(event.Kind),
				"error", err.Error(),
			)
		}
	}
	return nil
}

// List returns the vault's event trail in append order.
func (p *Publisher) List(ctx context.Context, vault domain.Address) ([]Event, error) {
	return p.store.ListByVault(ctx, vault)
}
