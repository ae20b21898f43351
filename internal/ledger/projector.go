package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mmynk/debtbook/internal/calculator"
	"github.com/mmynk/debtbook/internal/metrics"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

// State is the lifecycle state of an Observation.
type State int32

const (
	StateIdle State = iota
	StateSubscribed
	StateEmitting
	StateUnsubscribed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribed:
		return "subscribed"
	case StateEmitting:
		return "emitting"
	case StateUnsubscribed:
		return "unsubscribed"
	default:
		return "unknown"
	}
}

// Update is one value pushed to an observer, or a terminal error.
type Update[T any] struct {
	Value T
	Err   error
}

// Observation is a live view recomputed on every store change. Each
// Observation owns its store subscription and has exactly one consumer.
type Observation[T any] struct {
	view    string
	updates chan Update[T]
	state   atomic.Int32
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Updates returns the update channel. Updates arrive in store order; the
// channel is closed once the observation ends.
func (o *Observation[T]) Updates() <-chan Update[T] {
	return o.updates
}

// State reports the current lifecycle state.
func (o *Observation[T]) State() State {
	return State(o.state.Load())
}

// Close releases the store subscription. No update is delivered after
// Close returns. It is idempotent.
func (o *Observation[T]) Close() {
	o.once.Do(o.cancel)
	<-o.done
}

// Projector turns store change notifications into up-to-date summaries.
type Projector struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *metrics.Ledger
}

// ProjectorOptions configures a Projector.
type ProjectorOptions struct {
	Logger  *slog.Logger
	Metrics *metrics.Ledger
}

// NewProjector creates a Projector over store.
func NewProjector(store storage.Store, opts ProjectorOptions) *Projector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{store: store, logger: logger, metrics: opts.Metrics}
}

// ObserveContactSummary streams the summary of one contact.
func (p *Projector) ObserveContactSummary(ctx context.Context, ownerID, contactID string) (*Observation[models.ContactDebtSummary], error) {
	if ownerID == "" {
		return nil, invalid("owner_id", ErrMissingField, "")
	}
	if contactID == "" {
		return nil, invalid("contact_id", ErrMissingField, "")
	}
	return project(ctx, p, "contact",
		func(ctx context.Context) (*storage.Subscription[*models.Debt], error) {
			return p.store.SubscribeDebts(ctx, storage.DebtQuery{OwnerID: ownerID, ContactID: contactID})
		},
		func(debts []*models.Debt) models.ContactDebtSummary {
			return calculator.SummarizeContact(ownerID, contactID, debts)
		},
	)
}

// ObserveAllSummaries streams the summaries of every contact of an owner.
func (p *Projector) ObserveAllSummaries(ctx context.Context, ownerID string) (*Observation[[]models.ContactDebtSummary], error) {
	if ownerID == "" {
		return nil, invalid("owner_id", ErrMissingField, "")
	}
	return project(ctx, p, "ledger",
		func(ctx context.Context) (*storage.Subscription[*models.Debt], error) {
			return p.store.SubscribeDebts(ctx, storage.DebtQuery{OwnerID: ownerID})
		},
		func(debts []*models.Debt) []models.ContactDebtSummary {
			return calculator.SummarizeAll(ownerID, debts)
		},
	)
}

// ObservePayments streams a debt's payments, newest first.
func (p *Projector) ObservePayments(ctx context.Context, ownerID, debtID string) (*Observation[[]*models.DebtPayment], error) {
	if ownerID == "" {
		return nil, invalid("owner_id", ErrMissingField, "")
	}
	if debtID == "" {
		return nil, invalid("debt_id", ErrMissingField, "")
	}
	return project(ctx, p, "payments",
		func(ctx context.Context) (*storage.Subscription[*models.DebtPayment], error) {
			return p.store.SubscribePayments(ctx, storage.PaymentQuery{OwnerID: ownerID, DebtID: debtID})
		},
		func(payments []*models.DebtPayment) []*models.DebtPayment {
			if payments == nil {
				return []*models.DebtPayment{}
			}
			return payments
		},
	)
}

func project[S, T any](
	ctx context.Context,
	p *Projector,
	view string,
	subscribe func(context.Context) (*storage.Subscription[S], error),
	reduce func([]S) T,
) (*Observation[T], error) {
	ctx, cancel := context.WithCancel(ctx)
	o := &Observation[T]{
		view:    view,
		updates: make(chan Update[T]),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	sub, err := subscribe(ctx)
	if err != nil {
		cancel()
		return nil, p.subscribeError(view, err)
	}
	o.state.Store(int32(StateSubscribed))
	p.metrics.SubscriptionOpened(view)

	go func() {
		defer close(o.done)
		defer close(o.updates)
		defer p.metrics.SubscriptionClosed(view)
		defer o.state.Store(int32(StateUnsubscribed))
		defer sub.Close()

		for snap := range sub.C() {
			var u Update[T]
			if snap.Err != nil {
				u.Err = p.subscribeError(view, snap.Err)
			} else {
				u.Value = reduce(snap.Items)
			}
			// Drop a result computed while the observer was leaving.
			if ctx.Err() != nil {
				return
			}
			if u.Err == nil {
				o.state.Store(int32(StateEmitting))
			}
			select {
			case o.updates <- u:
			case <-ctx.Done():
				return
			}
			if u.Err != nil {
				return
			}
		}
	}()

	return o, nil
}

func (p *Projector) subscribeError(view string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	p.logger.Error("Summary subscription failed", "view", view, "error", err)
	return &StoreUnavailableError{Op: "observe " + view, Err: err}
}
