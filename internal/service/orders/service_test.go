package orders

import (
	"context"
	"testing"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	orders  []domain.Order
	tickets []domain.ClientTicket
	err     error
}

func (f fakeGateway) GetMyOrders(context.Context) ([]domain.Order, error) {
	return f.orders, f.err
}

func (f fakeGateway) GetClientTickets(context.Context) ([]domain.ClientTicket, error) {
	return f.tickets, f.err
}

func TestMyOrdersNeverNil(t *testing.T) {
	got, err := New(fakeGateway{}).MyOrders(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMyTickets(t *testing.T) {
	gw := fakeGateway{tickets: []domain.ClientTicket{{ID: "k1", EventID: "1", TicketNumber: "A-001"}}}

	got, err := New(gw).MyTickets(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A-001", got[0].TicketNumber)
}

func TestErrorsPassThrough(t *testing.T) {
	gw := fakeGateway{err: &gateway.APIError{StatusCode: 401, Message: "token expired"}}

	_, err := New(gw).MyOrders(context.Background())
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
}
