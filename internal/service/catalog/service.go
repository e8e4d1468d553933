package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/gateway"
	"github.com/kirinyoku/tix-storefront/internal/ordset"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

type Gateway interface {
	GetEvents(ctx context.Context, f gateway.EventFilters) (domain.PaginatedResponse[domain.Event], error)
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	GetEventTickets(ctx context.Context, eventID string) ([]domain.TicketType, error)
}

// Curation supplies the admin lists applied on top of the backend results.
type Curation interface {
	Curation(ctx context.Context) (domain.Curation, error)
}

// Query is a catalog search. Zero dates leave that bound open.
type Query struct {
	City     string
	Category string
	DateFrom time.Time
	DateTo   time.Time
}

type Result struct {
	// Fetched is what the backend returned for City and Category.
	Fetched []domain.Event `json:"fetched"`
	// Events is Fetched after the date range and the hidden lists.
	Events         []domain.Event `json:"events"`
	Cities         []string       `json:"cities"`
	Categories     []string       `json:"categories"`
	VisibleFilters []string       `json:"visibleFilters"`
}

type Detail struct {
	Event   domain.Event        `json:"event"`
	Tickets []domain.TicketType `json:"tickets"`
}

type Service struct {
	gw       Gateway
	curation Curation
	logger   *slog.Logger
}

func New(gw Gateway, curation Curation, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		gw:       gw,
		curation: curation,
		logger:   logger,
	}
}

// Browse runs a catalog search.
//
// Parameters:
//   - ctx: request-scoped context.
//   - q: city and category go to the backend; the date range is applied here.
//
// Returns:
//   - *Result: fetched and filtered events plus facets.
//   - error: the gateway error as returned, or a store error from the
//     curation lists.
func (s *Service) Browse(ctx context.Context, q Query) (*Result, error) {
	const op = "service.catalog.Browse"

	cur, err := s.curation.Curation(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.gw.GetEvents(ctx, gateway.EventFilters{
		City:     strings.TrimSpace(q.City),
		Category: strings.TrimSpace(q.Category),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fetched := resp.Data
	if fetched == nil {
		fetched = []domain.Event{}
	}

	return &Result{
		Fetched:        fetched,
		Events:         Filter(fetched, q, cur),
		Cities:         CityFacets(fetched, cur.Locations),
		Categories:     CategoryFacets(fetched, cur.Categories),
		VisibleFilters: cur.VisibleFilters,
	}, nil
}

// CityOf is the city part of a "City, State" location.
func CityOf(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.TrimSpace(city)
}

// CityFacets lists the cities of events first, then the admin extras.
func CityFacets(events []domain.Event, adminLocations []string) []string {
	cities := make([]string, 0, len(events))
	for _, e := range events {
		cities = append(cities, CityOf(e.Location))
	}
	return ordset.Union(cities, adminLocations)
}

func CategoryFacets(events []domain.Event, adminCategories []string) []string {
	cats := make([]string, 0, len(events))
	for _, e := range events {
		cats = append(cats, e.Category)
	}
	return ordset.Union(cats, adminCategories)
}

// Filter applies the inclusive date range and the hidden lists. A hidden
// city or category removes the event whatever else matches.
func Filter(events []domain.Event, q Query, cur domain.Curation) []domain.Event {
	out := make([]domain.Event, 0, len(events))

	for _, e := range events {
		if !q.DateFrom.IsZero() && e.DateTime.Before(q.DateFrom) {
			continue
		}
		if !q.DateTo.IsZero() && e.DateTime.After(q.DateTo) {
			continue
		}
		if ordset.Contains(cur.HiddenLocations, CityOf(e.Location)) {
			continue
		}
		if ordset.Contains(cur.HiddenCategories, e.Category) {
			continue
		}
		out = append(out, e)
	}

	return out
}

// ParseDate reads a date bound. Blank input is an open bound.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	return t, nil
}

// EventDetail loads an event and its ticket types in parallel. The tickets
// endpoint wins when it returns anything; otherwise the embedded list is used.
func (s *Service) EventDetail(ctx context.Context, id string) (*Detail, error) {
	const op = "service.catalog.EventDetail"

	var (
		event   domain.Event
		tickets []domain.TicketType
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		event, err = s.gw.GetEvent(gCtx, id)
		return err
	})

	g.Go(func() error {
		var err error
		tickets, err = s.gw.GetEventTickets(gCtx, id)
		if err != nil {
			s.logger.Warn("catalog: tickets endpoint failed",
				slog.String("event_id", id),
				slog.String("error", err.Error()),
			)
			tickets = nil
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(tickets) == 0 {
		tickets = event.TicketTypes
	}
	if tickets == nil {
		tickets = []domain.TicketType{}
	}

	return &Detail{Event: event, Tickets: tickets}, nil
}
