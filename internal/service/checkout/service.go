package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/kirinyoku/tix-storefront/internal/session"
	"golang.org/x/sync/errgroup"
)

type Gateway interface {
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	GetEventTickets(ctx context.Context, eventID string) ([]domain.TicketType, error)
	PurchaseTickets(ctx context.Context, in domain.PurchaseRequest) (domain.Order, error)
}

type Config struct {
	// LockTTL bounds how long a crashed submit can block the next one.
	LockTTL time.Duration
}

// Service is the per-profile checkout: Empty until something is staged,
// Pending while a request sits under the checkout key, Completed once a
// purchase succeeds and the key is cleared.
type Service struct {
	store  repository.Store
	locks  repository.Locker
	gw     Gateway
	logger *slog.Logger
	cfg    Config
	now    func() time.Time
}

func New(store repository.Store, locks repository.Locker, gw Gateway, logger *slog.Logger, cfg Config) *Service {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  store,
		locks:  locks,
		gw:     gw,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

type SummaryLine struct {
	domain.OrderItem
	TicketTypeName string `json:"ticketTypeName"`
}

type Summary struct {
	EventID   string        `json:"eventId"`
	EventName string        `json:"eventName"`
	Items     []SummaryLine `json:"items"`
}

type Receipt struct {
	Order        domain.Order `json:"order"`
	Confirmation Confirmation `json:"confirmation"`
}

func checkoutKey(profileID string) string {
	return repository.ProfileKey(profileID, repository.KeyCheckout)
}

// Stage replaces whatever is staged with a single ticket line.
//
// Parameters:
//   - ctx: must carry the profile (session.WithProfile).
//   - eventID, ticketTypeID: required.
//   - quantity: at least 1.
//
// Returns:
//   - domain.PurchaseRequest: the staged request.
//   - error: domain.ErrValidation on bad input.
func (s *Service) Stage(ctx context.Context, eventID, ticketTypeID string, quantity int) (domain.PurchaseRequest, error) {
	const op = "service.checkout.Stage"

	profileID, ok := session.ProfileFrom(ctx)
	if !ok {
		return domain.PurchaseRequest{}, fmt.Errorf("%s: %w", op, session.ErrNoProfile)
	}

	eventID = strings.TrimSpace(eventID)
	ticketTypeID = strings.TrimSpace(ticketTypeID)
	if eventID == "" || ticketTypeID == "" {
		return domain.PurchaseRequest{}, fmt.Errorf("%s: event and ticket type are required: %w", op, domain.ErrValidation)
	}
	if quantity < 1 {
		return domain.PurchaseRequest{}, fmt.Errorf("%s: quantity must be at least 1: %w", op, domain.ErrValidation)
	}

	req := domain.PurchaseRequest{
		EventID: eventID,
		Items:   []domain.OrderItem{{TicketTypeID: ticketTypeID, Quantity: quantity}},
	}

	if err := repository.SetJSON(ctx, s.store, checkoutKey(profileID), req); err != nil {
		return domain.PurchaseRequest{}, fmt.Errorf("%s: %w", op, err)
	}

	return req, nil
}

// Pending returns the staged request, if any.
func (s *Service) Pending(ctx context.Context) (domain.PurchaseRequest, bool, error) {
	const op = "service.checkout.Pending"

	profileID, ok := session.ProfileFrom(ctx)
	if !ok {
		return domain.PurchaseRequest{}, false, fmt.Errorf("%s: %w", op, session.ErrNoProfile)
	}

	req, ok, err := repository.GetJSON[domain.PurchaseRequest](ctx, s.store, checkoutKey(profileID))
	if err != nil {
		return domain.PurchaseRequest{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if ok && req.EventID == "" {
		ok = false
	}

	return req, ok, nil
}

// Summary names the staged event and ticket types. Lookups that fail leave
// the names blank.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	const op = "service.checkout.Summary"

	req, ok, err := s.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNothingStaged)
	}

	var (
		event   domain.Event
		tickets []domain.TicketType
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = s.gw.GetEvent(gCtx, req.EventID)
		return err
	})
	g.Go(func() error {
		var err error
		tickets, err = s.gw.GetEventTickets(gCtx, req.EventID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("checkout: summary lookup failed",
			slog.String("event_id", req.EventID),
			slog.String("error", err.Error()),
		)
	}

	if len(tickets) == 0 {
		tickets = event.TicketTypes
	}

	names := make(map[string]string, len(tickets))
	for _, t := range tickets {
		names[t.ID] = t.Name
	}

	sum := &Summary{EventID: req.EventID, EventName: event.Name}
	for _, it := range req.Items {
		sum.Items = append(sum.Items, SummaryLine{OrderItem: it, TicketTypeName: names[it.TicketTypeID]})
	}

	return sum, nil
}

// Submit pays for the staged request. The staged request is cleared only
// after the backend accepts it, so a failed payment can be retried.
//
// Returns:
//   - *Receipt: the order and its confirmation.
//   - error: ErrNothingStaged, ErrSubmissionInProgress when another submit
//     for the profile holds the lock, or the gateway error as returned.
func (s *Service) Submit(ctx context.Context) (*Receipt, error) {
	const op = "service.checkout.Submit"

	profileID, ok := session.ProfileFrom(ctx)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, session.ErrNoProfile)
	}

	lockKey := repository.KeyCheckoutLock(profileID)
	locked, err := s.locks.AcquireLock(ctx, lockKey, s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, ErrSubmissionInProgress)
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.Warn("checkout: release lock failed",
				slog.String("profile", profileID),
				slog.String("error", err.Error()),
			)
		}
	}()

	req, ok, err := s.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNothingStaged)
	}

	order, err := s.gw.PurchaseTickets(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.Del(ctx, checkoutKey(profileID)); err != nil {
		// purchase succeeded; report the order anyway
		s.logger.Error("checkout: clear staged request failed",
			slog.String("profile", profileID),
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	return &Receipt{
		Order: order,
		Confirmation: Confirmation{
			OrderID: order.ID,
			EventID: req.EventID,
			Items:   req.Items,
			TS:      s.now().UnixMilli(),
		},
	}, nil
}
