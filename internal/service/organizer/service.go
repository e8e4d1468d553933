package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/gateway"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	localIDPrefix = "local-"

	WarnBackendUnavailable = "organizer data is unavailable right now; showing local records only"
	WarnCreatedPending     = "event was created but the list could not be reloaded; a pending local copy is shown"
	WarnEditQueued         = "organizer service is unreachable; the edit is saved and will be sent later"
)

type Gateway interface {
	GetOrganizerEvents(ctx context.Context) (domain.PaginatedResponse[domain.Event], error)
	GetOrganizerReport(ctx context.Context) (domain.OrganizerReport, error)
	CreateEvent(ctx context.Context, in domain.CreateEventRequest) (domain.Event, error)
	EditEvent(ctx context.Context, id string, in domain.CreateEventRequest) (domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type Config struct {
	ReloadAttempts int
	ReloadBackoff  time.Duration
}

type Dashboard struct {
	Events  []domain.Event         `json:"events"`
	Report  domain.OrganizerReport `json:"report"`
	Warning string                 `json:"warning,omitempty"`
}

// localEvent is a myEvents entry. RemoteID is the id the backend gave the
// event on create; Edited marks a change it has not accepted yet.
type localEvent struct {
	domain.Event
	RemoteID string `json:"remoteId,omitempty"`
	Edited   bool   `json:"edited,omitempty"`
}

type Service struct {
	gw     Gateway
	store  repository.Store
	logger *slog.Logger
	cfg    Config
	newID  func() string
}

func New(gw Gateway, store repository.Store, logger *slog.Logger, cfg Config) *Service {
	if cfg.ReloadAttempts <= 0 {
		cfg.ReloadAttempts = 3
	}

	if cfg.ReloadBackoff <= 0 {
		cfg.ReloadBackoff = 200 * time.Millisecond
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		gw:     gw,
		store:  store,
		logger: logger,
		cfg:    cfg,
		newID:  func() string { return localIDPrefix + uuid.NewString() },
	}
}

func IsLocal(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// Dashboard loads the organizer's events and sales report.
//
// A failure of either endpoint is soft: the dashboard is returned with no
// backend events, a zero report and a warning. Pending local records of the
// organizer are shown in either case, and a successful load drops them.
func (s *Service) Dashboard(ctx context.Context, organizerID string) (*Dashboard, error) {
	const op = "service.organizer.Dashboard"

	var (
		events []domain.Event
		report domain.OrganizerReport
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := s.gw.GetOrganizerEvents(gCtx)
		events = resp.Data
		return err
	})
	g.Go(func() error {
		var err error
		report, err = s.gw.GetOrganizerReport(gCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("organizer: dashboard endpoints failed",
			slog.String("organizer_id", organizerID),
			slog.String("error", err.Error()),
		)

		pending, err := s.pending(ctx, organizerID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return &Dashboard{
			Events:  pending,
			Report:  domain.OrganizerReport{},
			Warning: WarnBackendUnavailable,
		}, nil
	}

	overlays, err := s.reconcile(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if events == nil {
		events = []domain.Event{}
	}

	return &Dashboard{Events: applyOverlays(events, overlays), Report: report}, nil
}

// CreateEvent posts a new event and reloads the organizer's list.
//
// Parameters:
//   - ctx: request-scoped context carrying the organizer's token.
//   - organizerID: owner recorded on a pending local copy.
//   - in: name, location, dateTime and every ticket name are required.
//
// Returns:
//   - *Dashboard: the reloaded list, or the pending local records with a
//     warning when every reload attempt failed.
//   - error: domain.ErrValidation, or the gateway error from the create call.
func (s *Service) CreateEvent(ctx context.Context, organizerID string, in domain.CreateEventRequest) (*Dashboard, error) {
	const op = "service.organizer.CreateEvent"

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	in = in.WithDefaults()

	created, err := s.gw.CreateEvent(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	events, err := s.reload(ctx)
	if err == nil {
		overlays, err := s.reconcile(ctx, organizerID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Dashboard{Events: applyOverlays(events, overlays)}, nil
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	}

	s.logger.Warn("organizer: reload after create failed, storing pending copy",
		slog.String("organizer_id", organizerID),
		slog.String("error", err.Error()),
	)

	local := localEvent{
		Event:    eventFromRequest(domain.Event{ID: s.newID()}, in),
		RemoteID: created.ID,
	}
	local.OrganizerID = organizerID
	local.SyncState = domain.SyncPending

	all, err := s.localRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.saveLocal(ctx, append(all, local)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pending, err := s.pending(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Dashboard{Events: pending, Warning: WarnCreatedPending}, nil
}

// EditEvent updates an event and returns the dashboard with the change
// merged into the matching record.
//
// A pending local record is edited through the backend id its create call
// returned. When the backend cannot be reached the edit is kept on the
// record and sent on the next successful dashboard load.
//
// Returns:
//   - *Dashboard: the reloaded dashboard with the edit applied.
//   - error: domain.ErrValidation, ErrEventNotFound for an unknown local id,
//     ErrPendingSync when the local record has no backend id, or the
//     gateway error as returned.
func (s *Service) EditEvent(ctx context.Context, organizerID, id string, in domain.CreateEventRequest) (*Dashboard, error) {
	const op = "service.organizer.EditEvent"

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	in = in.WithDefaults()

	target := id
	var warning string

	if IsLocal(id) {
		rec, err := s.ownedLocal(ctx, organizerID, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		target = rec.RemoteID

		_, err = s.gw.EditEvent(ctx, rec.RemoteID, in)
		switch {
		case err == nil:
			err = s.updateLocal(ctx, organizerID, id, in, false)
		case unreachable(err) && ctx.Err() == nil:
			s.logger.Warn("organizer: edit of pending event queued",
				slog.String("organizer_id", organizerID),
				slog.String("event_id", id),
				slog.String("error", err.Error()),
			)
			warning = WarnEditQueued
			err = s.updateLocal(ctx, organizerID, id, in, true)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if _, err := s.gw.EditEvent(ctx, id, in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dash, err := s.Dashboard(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range dash.Events {
		if dash.Events[i].ID == id || dash.Events[i].ID == target {
			dash.Events[i] = eventFromRequest(dash.Events[i], in)
		}
	}
	if dash.Warning == "" {
		dash.Warning = warning
	}

	return dash, nil
}

// DeleteEvent removes the event on the backend and drops the organizer's
// local record for it. A pending record is deleted through its backend id.
func (s *Service) DeleteEvent(ctx context.Context, organizerID, id string) error {
	const op = "service.organizer.DeleteEvent"

	target := id
	if IsLocal(id) {
		rec, err := s.ownedLocal(ctx, organizerID, id)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		target = rec.RemoteID
	}

	if err := s.gw.DeleteEvent(ctx, target); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	all, err := s.localRecords(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	next := make([]localEvent, 0, len(all))
	for _, e := range all {
		if e.OrganizerID == organizerID && (e.ID == id || e.RemoteID == target) {
			continue
		}
		next = append(next, e)
	}
	if len(next) == len(all) {
		return nil
	}

	if err := s.saveLocal(ctx, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// reload retries the list call with exponential backoff.
func (s *Service) reload(ctx context.Context) ([]domain.Event, error) {
	backOff := s.cfg.ReloadBackoff

	var lastErr error
	for attempt := 1; attempt <= s.cfg.ReloadAttempts; attempt++ {
		resp, err := s.gw.GetOrganizerEvents(ctx)
		if err == nil {
			if resp.Data == nil {
				resp.Data = []domain.Event{}
			}
			return resp.Data, nil
		}
		lastErr = err

		if attempt == s.cfg.ReloadAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backOff):
			backOff *= 2
		}
	}

	return nil, lastErr
}

func (s *Service) localRecords(ctx context.Context) ([]localEvent, error) {
	return repository.GetJSONOr(ctx, s.store, repository.GlobalKey(repository.KeyMyEvents), []localEvent{})
}

func (s *Service) saveLocal(ctx context.Context, events []localEvent) error {
	return repository.SetJSON(ctx, s.store, repository.GlobalKey(repository.KeyMyEvents), events)
}

func (s *Service) pending(ctx context.Context, organizerID string) ([]domain.Event, error) {
	all, err := s.localRecords(ctx)
	if err != nil {
		return nil, err
	}

	out := []domain.Event{}
	for _, e := range all {
		if e.OrganizerID == organizerID && e.SyncState == domain.SyncPending {
			out = append(out, e.Event)
		}
	}
	return out, nil
}

// ownedLocal finds the organizer's pending record with the given id. It
// must carry a backend id to be changed.
func (s *Service) ownedLocal(ctx context.Context, organizerID, id string) (localEvent, error) {
	all, err := s.localRecords(ctx)
	if err != nil {
		return localEvent{}, err
	}

	for _, e := range all {
		if e.ID != id || e.OrganizerID != organizerID {
			continue
		}
		if e.RemoteID == "" {
			return localEvent{}, ErrPendingSync
		}
		return e, nil
	}
	return localEvent{}, ErrEventNotFound
}

// reconcile runs after the backend list has loaded. Queued edits are sent
// first; a record whose edit is still not accepted stays. Every other
// pending record of the organizer is dropped. The returned records carry
// edits to overlay on the backend list.
func (s *Service) reconcile(ctx context.Context, organizerID string) ([]localEvent, error) {
	all, err := s.localRecords(ctx)
	if err != nil {
		return nil, err
	}

	var overlays []localEvent
	next := make([]localEvent, 0, len(all))
	for _, e := range all {
		if e.OrganizerID != organizerID || e.SyncState != domain.SyncPending {
			next = append(next, e)
			continue
		}
		if !e.Edited {
			continue
		}

		overlays = append(overlays, e)
		if _, err := s.gw.EditEvent(ctx, e.RemoteID, requestFromEvent(e.Event)); err != nil {
			s.logger.Warn("organizer: queued edit not accepted yet",
				slog.String("organizer_id", organizerID),
				slog.String("event_id", e.ID),
				slog.String("error", err.Error()),
			)
			next = append(next, e)
		}
	}
	if len(next) == len(all) {
		return overlays, nil
	}

	return overlays, s.saveLocal(ctx, next)
}

func (s *Service) updateLocal(ctx context.Context, organizerID, id string, in domain.CreateEventRequest, queued bool) error {
	all, err := s.localRecords(ctx)
	if err != nil {
		return err
	}

	for i := range all {
		if all[i].ID == id && all[i].OrganizerID == organizerID {
			all[i].Event = eventFromRequest(all[i].Event, in)
			all[i].Edited = all[i].Edited || queued
		}
	}

	return s.saveLocal(ctx, all)
}

func applyOverlays(events []domain.Event, overlays []localEvent) []domain.Event {
	for _, o := range overlays {
		for i := range events {
			if events[i].ID == o.RemoteID {
				events[i] = eventFromRequest(events[i], requestFromEvent(o.Event))
			}
		}
	}
	return events
}

// unreachable reports failures worth retrying later.
func unreachable(err error) bool {
	if errors.Is(err, gateway.ErrTransport) {
		return true
	}
	var apiErr *gateway.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusInternalServerError
}

func requestFromEvent(e domain.Event) domain.CreateEventRequest {
	in := domain.CreateEventRequest{
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		DateTime:    e.DateTime,
		BannerURL:   e.BannerURL,
		Category:    e.Category,
	}
	for _, t := range e.TicketTypes {
		in.TicketTypes = append(in.TicketTypes, domain.TicketTypeInput{
			Name:          t.Name,
			Price:         t.Price,
			QuantityTotal: t.QuantityTotal,
		})
	}
	return in
}

// eventFromRequest overlays the form fields on e. Ticket types are replaced
// by the submitted ones, keeping existing ids by position.
func eventFromRequest(e domain.Event, in domain.CreateEventRequest) domain.Event {
	e.Name = strings.TrimSpace(in.Name)
	e.Description = in.Description
	e.Location = strings.TrimSpace(in.Location)
	e.DateTime = in.DateTime
	e.BannerURL = in.BannerURL
	e.Category = in.Category

	tickets := make([]domain.TicketType, 0, len(in.TicketTypes))
	for i, t := range in.TicketTypes {
		tt := domain.TicketType{
			Name:          t.Name,
			Price:         t.Price,
			QuantityTotal: t.QuantityTotal,
			EventID:       e.ID,
		}
		if i < len(e.TicketTypes) {
			tt.ID = e.TicketTypes[i].ID
			tt.QuantitySold = e.TicketTypes[i].QuantitySold
		}
		tickets = append(tickets, tt)
	}
	e.TicketTypes = tickets

	return e
}
