package httpgin

import (
	"time"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/service/checkout"
	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SignupRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     domain.Role `json:"role" binding:"required"`
}

type ThemeRequest struct {
	Theme domain.Theme `json:"theme" binding:"required"`
}

type StageRequest struct {
	EventID      string `json:"eventId" binding:"required"`
	TicketTypeID string `json:"ticketTypeId" binding:"required"`
	Quantity     int    `json:"quantity"`
}

type TicketTypeInput struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	QuantityTotal int             `json:"quantityTotal"`
}

// EventRequest is the organizer and admin event form. DateTime is RFC3339.
type EventRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	DateTime    string            `json:"dateTime"`
	BannerURL   string            `json:"bannerUrl"`
	Category    string            `json:"category"`
	TicketTypes []TicketTypeInput `json:"ticketTypes"`
}

type ValueRequest struct {
	Value string `json:"value" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SessionResponse struct {
	User domain.User `json:"user"`
}

type IdentityResponse struct {
	User  *domain.User      `json:"user"`
	Admin *domain.AdminAuth `json:"admin"`
}

type ThemeResponse struct {
	Theme domain.Theme `json:"theme"`
}

type ListResponse struct {
	Collection string   `json:"collection"`
	Values     []string `json:"values"`
}

type PayResponse struct {
	Order        domain.Order          `json:"order"`
	Confirmation checkout.Confirmation `json:"confirmation"`
	Payload      string                `json:"payload"`
	// QRCode is a PNG, base64 encoded in JSON.
	QRCode []byte `json:"qrCode"`
}

func (r EventRequest) toDomain() (domain.CreateEventRequest, error) {
	var at time.Time
	if r.DateTime != "" {
		t, err := parseRFC3339(r.DateTime)
		if err != nil {
			return domain.CreateEventRequest{}, err
		}
		at = t
	}

	out := domain.CreateEventRequest{
		Name:        r.Name,
		Description: r.Description,
		Location:    r.Location,
		DateTime:    at,
		BannerURL:   r.BannerURL,
		Category:    r.Category,
	}
	for _, t := range r.TicketTypes {
		out.TicketTypes = append(out.TicketTypes, domain.TicketTypeInput(t))
	}

	return out, nil
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
