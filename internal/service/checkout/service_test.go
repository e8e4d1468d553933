package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/gateway"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/kirinyoku/tix-storefront/internal/repository/memory"
	"github.com/kirinyoku/tix-storefront/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	purchased  []domain.PurchaseRequest
	purchaseFn func(domain.PurchaseRequest) (domain.Order, error)
	event      domain.Event
	eventErr   error
	tickets    []domain.TicketType
}

func (f *fakeGateway) GetEvent(context.Context, string) (domain.Event, error) {
	return f.event, f.eventErr
}

func (f *fakeGateway) GetEventTickets(context.Context, string) ([]domain.TicketType, error) {
	return f.tickets, nil
}

func (f *fakeGateway) PurchaseTickets(_ context.Context, in domain.PurchaseRequest) (domain.Order, error) {
	f.purchased = append(f.purchased, in)
	return f.purchaseFn(in)
}

func echoOrder(in domain.PurchaseRequest) (domain.Order, error) {
	o := domain.Order{ID: "order-42", EventID: in.EventID, Status: "PAID"}
	for _, it := range in.Items {
		o.Items = append(o.Items, domain.OrderLine{
			TicketTypeID:   it.TicketTypeID,
			TicketTypeName: "Pista",
			Quantity:       it.Quantity,
			Price:          decimal.NewFromInt(80),
		})
	}
	return o, nil
}

func newTestService(t *testing.T, gw Gateway) (*Service, *memory.Store, context.Context) {
	t.Helper()
	store := memory.New()
	s := New(store, store, gw, nil, Config{})
	s.now = func() time.Time { return time.UnixMilli(1760400000123) }
	return s, store, session.WithProfile(context.Background(), "p1")
}

func TestStageValidation(t *testing.T) {
	s, _, ctx := newTestService(t, &fakeGateway{})

	_, err := s.Stage(ctx, "", "t1", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.Stage(ctx, "1", "t1", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.Stage(context.Background(), "1", "t1", 1)
	assert.ErrorIs(t, err, session.ErrNoProfile)

	_, ok, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStageReplacesPrevious(t *testing.T) {
	s, _, ctx := newTestService(t, &fakeGateway{})

	_, err := s.Stage(ctx, "1", "t1", 2)
	require.NoError(t, err)
	_, err = s.Stage(ctx, "2", "t9", 1)
	require.NoError(t, err)

	req, ok, err := s.Pending(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.PurchaseRequest{EventID: "2", Items: []domain.OrderItem{{TicketTypeID: "t9", Quantity: 1}}}, req)
}

func TestSubmitSuccessClearsStaged(t *testing.T) {
	gw := &fakeGateway{purchaseFn: echoOrder}
	s, _, ctx := newTestService(t, gw)

	_, err := s.Stage(ctx, "1", "t1", 2)
	require.NoError(t, err)

	rc, err := s.Submit(ctx)
	require.NoError(t, err)

	require.Len(t, rc.Order.Items, 1)
	assert.Equal(t, 2, rc.Order.Items[0].Quantity)
	assert.Equal(t, Confirmation{
		OrderID: "order-42",
		EventID: "1",
		Items:   []domain.OrderItem{{TicketTypeID: "t1", Quantity: 2}},
		TS:      1760400000123,
	}, rc.Confirmation)

	_, ok, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Submit(ctx)
	assert.ErrorIs(t, err, ErrNothingStaged)
}

func TestSubmitFailureKeepsStaged(t *testing.T) {
	gw := &fakeGateway{purchaseFn: func(domain.PurchaseRequest) (domain.Order, error) {
		return domain.Order{}, &gateway.APIError{StatusCode: 409, Message: "sold out"}
	}}
	s, _, ctx := newTestService(t, gw)

	staged, err := s.Stage(ctx, "1", "t1", 2)
	require.NoError(t, err)

	_, err = s.Submit(ctx)
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "sold out", apiErr.Message)

	req, ok, err := s.Pending(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, staged, req)

	// retry goes through once the backend accepts it
	gw.purchaseFn = echoOrder
	_, err = s.Submit(ctx)
	require.NoError(t, err)
	assert.Len(t, gw.purchased, 2)
}

func TestSubmitRejectsConcurrentSubmission(t *testing.T) {
	gw := &fakeGateway{purchaseFn: echoOrder}
	s, store, ctx := newTestService(t, gw)

	_, err := s.Stage(ctx, "1", "t1", 1)
	require.NoError(t, err)

	held, err := store.AcquireLock(ctx, repository.KeyCheckoutLock("p1"), time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	_, err = s.Submit(ctx)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.Empty(t, gw.purchased)

	require.NoError(t, store.Release(ctx, repository.KeyCheckoutLock("p1")))
	_, err = s.Submit(ctx)
	require.NoError(t, err)

	// the lock is released after a submit
	ok, err := store.AcquireLock(ctx, repository.KeyCheckoutLock("p1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProfilesAreIsolated(t *testing.T) {
	s, _, ctx := newTestService(t, &fakeGateway{})

	_, err := s.Stage(ctx, "1", "t1", 1)
	require.NoError(t, err)

	_, ok, err := s.Pending(session.WithProfile(context.Background(), "p2"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSummary(t *testing.T) {
	gw := &fakeGateway{
		event:   domain.Event{ID: "1", Name: "Festival"},
		tickets: []domain.TicketType{{ID: "t1", Name: "Pista"}, {ID: "t2", Name: "Camarote"}},
	}
	s, _, ctx := newTestService(t, gw)

	_, err := s.Summary(ctx)
	assert.ErrorIs(t, err, ErrNothingStaged)

	_, err = s.Stage(ctx, "1", "t2", 3)
	require.NoError(t, err)

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Festival", sum.EventName)
	require.Len(t, sum.Items, 1)
	assert.Equal(t, "Camarote", sum.Items[0].TicketTypeName)
	assert.Equal(t, 3, sum.Items[0].Quantity)

	gw.eventErr = errors.New("down")
	sum, err = s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", sum.EventID)
}

func TestConfirmationPayloadAndQRCode(t *testing.T) {
	c := Confirmation{
		OrderID: "order-42",
		EventID: "1",
		Items:   []domain.OrderItem{{TicketTypeID: "t1", Quantity: 2}},
		TS:      1760400000123,
	}

	payload, err := c.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":"order-42","eventId":"1","items":[{"ticketTypeId":"t1","quantity":2}],"ts":1760400000123}`, payload)

	var back Confirmation
	require.NoError(t, json.Unmarshal([]byte(payload), &back))
	assert.Equal(t, c, back)

	png, err := c.QRCode()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
