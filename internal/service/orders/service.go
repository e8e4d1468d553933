package orders

import (
	"context"
	"fmt"

	"github.com/kirinyoku/tix-storefront/internal/domain"
)

type Gateway interface {
	GetMyOrders(ctx context.Context) ([]domain.Order, error)
	GetClientTickets(ctx context.Context) ([]domain.ClientTicket, error)
}

// Service backs the customer area. The backend scopes both lists by the
// bearer token, so nothing here filters by user.
type Service struct {
	gw Gateway
}

func New(gw Gateway) *Service {
	return &Service{gw: gw}
}

// MyOrders lists the signed-in customer's orders.
//
// Parameters:
//   - ctx: request-scoped context carrying the customer's profile.
//
// Returns:
//   - []domain.Order: never nil.
//   - error: the gateway error as returned.
func (s *Service) MyOrders(ctx context.Context) ([]domain.Order, error) {
	const op = "service.orders.MyOrders"

	orders, err := s.gw.GetMyOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	return orders, nil
}

func (s *Service) MyTickets(ctx context.Context) ([]domain.ClientTicket, error) {
	const op = "service.orders.MyTickets"

	tickets, err := s.gw.GetClientTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if tickets == nil {
		tickets = []domain.ClientTicket{}
	}

	return tickets, nil
}
