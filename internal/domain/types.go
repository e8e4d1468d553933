package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The ticketing API exchanges prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	DefaultCategory  = "Outros"
	DefaultBannerURL = "https://images.unsplash.com/photo-1521737604893-d14cc237f11d?q=80&w=1600&auto=format&fit=crop"
)

type SyncState string

const (
	SyncConfirmed SyncState = ""
	SyncPending   SyncState = "pending"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Session is the token and user pair held for one browser profile.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type TicketType struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	QuantityTotal int             `json:"quantityTotal"`
	QuantitySold  int             `json:"quantitySold,omitempty"`
	EventID       string          `json:"eventId,omitempty"`
}

// Available is the unsold remainder, floored at zero. Overselling is the
// backend's concern, so a negative remainder is only clamped for display.
func (t TicketType) Available() int {
	if n := t.QuantityTotal - t.QuantitySold; n > 0 {
		return n
	}
	return 0
}

type Event struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	DateTime    time.Time    `json:"dateTime"`
	BannerURL   string       `json:"bannerUrl"`
	Category    string       `json:"category"`
	OrganizerID string       `json:"organizerId"`
	TicketTypes []TicketType `json:"ticketTypes,omitempty"`
	SyncState   SyncState    `json:"syncState,omitempty"`
}

type PaginatedResponse[T any] struct {
	Count   int  `json:"count"`
	Data    []T  `json:"data"`
	Success bool `json:"success"`
}

type TicketTypeInput struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	QuantityTotal int             `json:"quantityTotal"`
}

type CreateEventRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	DateTime    time.Time         `json:"dateTime"`
	BannerURL   string            `json:"bannerUrl"`
	Category    string            `json:"category"`
	TicketTypes []TicketTypeInput `json:"ticketTypes"`
}

// WithDefaults fills the banner and category the organizer left blank.
func (r CreateEventRequest) WithDefaults() CreateEventRequest {
	if r.BannerURL == "" {
		r.BannerURL = DefaultBannerURL
	}
	if r.Category == "" {
		r.Category = DefaultCategory
	}
	return r
}

type OrderItem struct {
	TicketTypeID string `json:"ticketTypeId"`
	Quantity     int    `json:"quantity"`
}

type PurchaseRequest struct {
	EventID string      `json:"eventId"`
	Items   []OrderItem `json:"items"`
}

type OrderLine struct {
	TicketTypeID   string          `json:"ticketTypeId"`
	TicketTypeName string          `json:"ticketTypeName"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
}

type Order struct {
	ID        string          `json:"id"`
	EventID   string          `json:"eventId"`
	Items     []OrderLine     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}

type OrganizerReport struct {
	TotalSold int             `json:"totalSold"`
	Gross     decimal.Decimal `json:"gross"`
	Fee       decimal.Decimal `json:"fee"`
	Net       decimal.Decimal `json:"net"`
}

type ClientTicket struct {
	ID           string `json:"id"`
	EventID      string `json:"eventId"`
	TicketNumber string `json:"ticketNumber"`
	QRCodeURL    string `json:"qrCodeUrl"`
}

type Organizer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type AdminAuth struct {
	Email string `json:"email"`
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}
