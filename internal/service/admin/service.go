package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/ordset"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/kirinyoku/tix-storefront/internal/service/catalog"
)

const (
	OriginAdmin     = "admin"
	OriginOrganizer = "organizer"
)

// Service manages the shared, admin-curated collections. Every mutation
// reads, recomputes and writes the whole value; the last writer wins.
type Service struct {
	store  repository.Store
	logger *slog.Logger
	newID  func() string
}

func New(store repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// List returns the stored list, or an empty one when unset.
func (s *Service) List(ctx context.Context, c Collection) ([]string, error) {
	const op = "service.admin.List"

	if c == VisibleFilters {
		return s.VisibleFilters(ctx)
	}

	list, err := repository.GetJSONOr(ctx, s.store, c.key(), []string{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if list == nil {
		list = []string{}
	}

	return list, nil
}

// Add inserts value unless present and returns the new list.
//
// Parameters:
//   - ctx: request-scoped context.
//   - c: the collection to change.
//   - value: trimmed before insert; blank values are rejected.
//
// Returns:
//   - []string: the list as written.
//   - error: domain.ErrValidation for a blank value, ErrUnknownFilter for a
//     visible-filter name outside city, category and dateRange.
func (s *Service) Add(ctx context.Context, c Collection, value string) ([]string, error) {
	const op = "service.admin.Add"

	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%s: value is required: %w", op, domain.ErrValidation)
	}

	if c == VisibleFilters && !domain.FilterKey(value).Supported() {
		return nil, fmt.Errorf("%s: %q: %w", op, value, ErrUnknownFilter)
	}

	list, err := s.List(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next := ordset.Add(list, value)
	if err := repository.SetJSON(ctx, s.store, c.key(), next); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return next, nil
}

// Remove filters value out and returns the new list.
func (s *Service) Remove(ctx context.Context, c Collection, value string) ([]string, error) {
	const op = "service.admin.Remove"

	list, err := s.List(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next := ordset.Remove(list, value)
	if err := repository.SetJSON(ctx, s.store, c.key(), next); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return next, nil
}

// VisibleFilters returns the catalog filters to show. A value in the legacy
// adminFiltersEnabled format is converted once; with nothing stored the
// defaults are written.
func (s *Service) VisibleFilters(ctx context.Context) ([]string, error) {
	const op = "service.admin.VisibleFilters"

	key := repository.GlobalKey(repository.KeyAdminVisibleFilters)

	list, ok, err := repository.GetJSON[[]string](ctx, s.store, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		if list == nil {
			list = []string{}
		}
		return list, nil
	}

	legacy, hasLegacy, err := s.store.Get(ctx, repository.GlobalKey(repository.KeyAdminFiltersEnabled))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	list = domain.DefaultVisibleFilters()
	if hasLegacy {
		migrated, err := enabledInOrder(legacy)
		if err != nil {
			s.logger.Warn("admin: legacy filter settings unreadable, using defaults",
				slog.String("error", err.Error()),
			)
		} else {
			list = migrated
		}
	}

	if err := repository.SetJSON(ctx, s.store, key, list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Curation gathers the lists the catalog applies.
func (s *Service) Curation(ctx context.Context) (domain.Curation, error) {
	const op = "service.admin.Curation"

	var cur domain.Curation
	targets := []struct {
		c   Collection
		dst *[]string
	}{
		{Locations, &cur.Locations},
		{Categories, &cur.Categories},
		{HiddenLocations, &cur.HiddenLocations},
		{HiddenCategories, &cur.HiddenCategories},
		{VisibleFilters, &cur.VisibleFilters},
	}

	for _, t := range targets {
		list, err := s.List(ctx, t.c)
		if err != nil {
			return domain.Curation{}, fmt.Errorf("%s: %w", op, err)
		}
		*t.dst = list
	}

	return cur, nil
}

func (s *Service) Events(ctx context.Context) ([]domain.Event, error) {
	const op = "service.admin.Events"

	events, err := repository.GetJSONOr(ctx, s.store, repository.GlobalKey(repository.KeyAdminEvents), []domain.Event{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if events == nil {
		events = []domain.Event{}
	}

	return events, nil
}

// AddEvent stores a storefront-only event. It never reaches the backend.
func (s *Service) AddEvent(ctx context.Context, in domain.CreateEventRequest) (domain.Event, error) {
	const op = "service.admin.AddEvent"

	if err := in.Validate(); err != nil {
		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}
	in = in.WithDefaults()

	events, err := s.Events(ctx)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	e := domain.Event{
		ID:          s.newID(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
		DateTime:    in.DateTime,
		BannerURL:   in.BannerURL,
		Category:    in.Category,
	}
	for _, t := range in.TicketTypes {
		e.TicketTypes = append(e.TicketTypes, domain.TicketType{
			ID:            s.newID(),
			Name:          t.Name,
			Price:         t.Price,
			QuantityTotal: t.QuantityTotal,
			EventID:       e.ID,
		})
	}

	if err := repository.SetJSON(ctx, s.store, repository.GlobalKey(repository.KeyAdminEvents), append(events, e)); err != nil {
		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

func (s *Service) RemoveEvent(ctx context.Context, id string) error {
	const op = "service.admin.RemoveEvent"

	events, err := s.Events(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	next := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if e.ID != id {
			next = append(next, e)
		}
	}
	if len(next) == len(events) {
		return fmt.Errorf("%s: %s: %w", op, id, ErrEventNotFound)
	}

	if err := repository.SetJSON(ctx, s.store, repository.GlobalKey(repository.KeyAdminEvents), next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) Organizers(ctx context.Context) ([]domain.Organizer, error) {
	const op = "service.admin.Organizers"

	list, err := repository.GetJSONOr(ctx, s.store, repository.GlobalKey(repository.KeyOrganizers), []domain.Organizer{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if list == nil {
		list = []domain.Organizer{}
	}

	return list, nil
}

// RecordOrganizer adds the organizer unless the email is already listed.
// A known email only picks up a name it was missing.
func (s *Service) RecordOrganizer(ctx context.Context, o domain.Organizer) error {
	const op = "service.admin.RecordOrganizer"

	o.Email = strings.TrimSpace(o.Email)
	o.Name = strings.TrimSpace(o.Name)
	if o.Email == "" {
		return fmt.Errorf("%s: email is required: %w", op, domain.ErrValidation)
	}

	list, err := s.Organizers(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	found := false
	for i := range list {
		if strings.EqualFold(list[i].Email, o.Email) {
			found = true
			if list[i].Name == "" && o.Name != "" {
				list[i].Name = o.Name
				break
			}
			return nil
		}
	}
	if !found {
		list = append(list, o)
	}

	if err := repository.SetJSON(ctx, s.store, repository.GlobalKey(repository.KeyOrganizers), list); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) RemoveOrganizer(ctx context.Context, email string) ([]domain.Organizer, error) {
	const op = "service.admin.RemoveOrganizer"

	list, err := s.Organizers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next := make([]domain.Organizer, 0, len(list))
	for _, o := range list {
		if !strings.EqualFold(o.Email, email) {
			next = append(next, o)
		}
	}

	if err := repository.SetJSON(ctx, s.store, repository.GlobalKey(repository.KeyOrganizers), next); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return next, nil
}

type OriginEvent struct {
	Origin string `json:"origin"`
	domain.Event
}

type Overview struct {
	domain.Curation
	DetectedLocations  []string           `json:"detectedLocations"`
	DetectedCategories []string           `json:"detectedCategories"`
	Organizers         []domain.Organizer `json:"organizers"`
	Events             []OriginEvent      `json:"events"`
}

// Overview is everything the admin dashboard shows. Detected values come
// from admin events and organizers' local records, in that order.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	const op = "service.admin.Overview"

	cur, err := s.Curation(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	adminEvents, err := s.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	local, err := repository.GetJSONOr(ctx, s.store, repository.GlobalKey(repository.KeyMyEvents), []domain.Event{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	organizers, err := s.Organizers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	all := append(append([]domain.Event{}, adminEvents...), local...)
	events := make([]OriginEvent, 0, len(all))
	for i, e := range all {
		origin := OriginOrganizer
		if i < len(adminEvents) {
			origin = OriginAdmin
		}
		events = append(events, OriginEvent{Origin: origin, Event: e})
	}

	return &Overview{
		Curation:           cur,
		DetectedLocations:  catalog.CityFacets(all, nil),
		DetectedCategories: catalog.CategoryFacets(all, nil),
		Organizers:         organizers,
		Events:             events,
	}, nil
}
