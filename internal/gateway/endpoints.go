package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kirinyoku/tix-storefront/internal/domain"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// EventFilters narrows GET /events. Empty fields are not sent.
type EventFilters struct {
	City     string
	Category string
}

func (f EventFilters) query() string {
	v := url.Values{}
	if f.City != "" {
		v.Set("city", f.City)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) Login(ctx context.Context, in Credentials) (domain.AuthResponse, error) {
	return request[domain.AuthResponse](ctx, c, call{
		method:   http.MethodPost,
		route:    "/auth/login",
		endpoint: "/auth/login",
		body:     in,
	})
}

func (c *Client) Signup(ctx context.Context, in SignupRequest) (domain.AuthResponse, error) {
	return request[domain.AuthResponse](ctx, c, call{
		method:   http.MethodPost,
		route:    "/auth/signup",
		endpoint: "/auth/signup",
		body:     in,
	})
}

func (c *Client) GetEvents(ctx context.Context, f EventFilters) (domain.PaginatedResponse[domain.Event], error) {
	return request[domain.PaginatedResponse[domain.Event]](ctx, c, call{
		method:   http.MethodGet,
		route:    "/events",
		endpoint: "/events" + f.query(),
	})
}

func (c *Client) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	return request[domain.Event](ctx, c, call{
		method:   http.MethodGet,
		route:    "/events/:id",
		endpoint: "/events/" + url.PathEscape(id),
	})
}

func (c *Client) CreateEvent(ctx context.Context, in domain.CreateEventRequest) (domain.Event, error) {
	return request[domain.Event](ctx, c, call{
		method:   http.MethodPost,
		route:    "/events",
		endpoint: "/events",
		body:     in,
	})
}

func (c *Client) EditEvent(ctx context.Context, id string, in domain.CreateEventRequest) (domain.Event, error) {
	return request[domain.Event](ctx, c, call{
		method:   http.MethodPut,
		route:    "/events/:id",
		endpoint: "/events/" + url.PathEscape(id),
		body:     in,
	})
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	_, err := request[struct{}](ctx, c, call{
		method:   http.MethodDelete,
		route:    "/events/:id",
		endpoint: "/events/" + url.PathEscape(id),
	})
	return err
}

func (c *Client) GetOrganizerEvents(ctx context.Context) (domain.PaginatedResponse[domain.Event], error) {
	return request[domain.PaginatedResponse[domain.Event]](ctx, c, call{
		method:   http.MethodGet,
		route:    "/events/my",
		endpoint: "/events/my",
	})
}

func (c *Client) GetEventTickets(ctx context.Context, eventID string) ([]domain.TicketType, error) {
	return request[[]domain.TicketType](ctx, c, call{
		method:   http.MethodGet,
		route:    "/events/:id/tickets",
		endpoint: "/events/" + url.PathEscape(eventID) + "/tickets",
	})
}

func (c *Client) PurchaseTickets(ctx context.Context, in domain.PurchaseRequest) (domain.Order, error) {
	return request[domain.Order](ctx, c, call{
		method:   http.MethodPost,
		route:    "/orders/purchase",
		endpoint: "/orders/purchase",
		body:     in,
	})
}

func (c *Client) GetMyOrders(ctx context.Context) ([]domain.Order, error) {
	return request[[]domain.Order](ctx, c, call{
		method:   http.MethodGet,
		route:    "/orders/my",
		endpoint: "/orders/my",
	})
}

func (c *Client) GetOrganizerReport(ctx context.Context) (domain.OrganizerReport, error) {
	return request[domain.OrganizerReport](ctx, c, call{
		method:   http.MethodGet,
		route:    "/organizer/report",
		endpoint: "/organizer/report",
	})
}

func (c *Client) GetClientTickets(ctx context.Context) ([]domain.ClientTicket, error) {
	return request[[]domain.ClientTicket](ctx, c, call{
		method:   http.MethodGet,
		route:    "/tickets/my",
		endpoint: "/tickets/my",
	})
}
