package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/"}, tokens)
}

func TestRequestSetsHeadersAndBody(t *testing.T) {
	var got domain.PurchaseRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders/purchase", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"o-1","eventId":"1","items":[{"ticketTypeId":"t1","ticketTypeName":"VIP","quantity":2,"price":50.5}],"total":101,"status":"PAID"}`))
	}, staticToken("tok-1"))

	order, err := c.PurchaseTickets(context.Background(), domain.PurchaseRequest{
		EventID: "1",
		Items:   []domain.OrderItem{{TicketTypeID: "t1", Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "1", got.EventID)
	assert.Equal(t, "o-1", order.ID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("50.5").Equal(order.Items[0].Price))
}

func TestRequestWithoutTokenIsAnonymous(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}, staticToken(""))

	orders, err := c.GetMyOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestGetEventsOmitsEmptyFilters(t *testing.T) {
	var queries []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"count":0,"data":[],"success":true}`))
	}, nil)

	_, err := c.GetEvents(context.Background(), EventFilters{})
	require.NoError(t, err)
	_, err = c.GetEvents(context.Background(), EventFilters{City: "São Paulo"})
	require.NoError(t, err)
	_, err = c.GetEvents(context.Background(), EventFilters{City: "Rio", Category: "Música"})
	require.NoError(t, err)

	assert.Equal(t, []string{"", "city=S%C3%A3o+Paulo", "category=M%C3%BAsica&city=Rio"}, queries)
}

func TestAPIErrorUsesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
	}, nil)

	_, err := c.Login(context.Background(), Credentials{Email: "a@b.c", Password: "x"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid credentials", apiErr.Error())
}

func TestAPIErrorFallsBackToStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}, nil)

	_, err := c.GetOrganizerReport(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "HTTP 500", apiErr.Message)
}

func TestAPIErrorWithUnreadableBody(t *testing.T) {
	for name, body := range map[string]string{
		"html":  `<html>oops</html>`,
		"empty": ``,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(body))
			}, nil)

			_, err := c.GetOrganizerReport(context.Background())

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
			assert.Equal(t, "Erro na requisição", apiErr.Message)
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(Config{BaseURL: base}, nil)
	_, err := c.GetEvent(context.Background(), "1")

	assert.ErrorIs(t, err, ErrTransport)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestDeleteEventAcceptsEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/events/e%2F1", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	require.NoError(t, c.DeleteEvent(context.Background(), "e/1"))
}

type countingToken struct{ n int }

func (c *countingToken) Token(context.Context) (string, error) {
	c.n++
	return "t", nil
}

func TestTokenReadOnEveryCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalSold":3,"gross":30,"fee":3,"net":27}`))
	}, nil)
	tokens := &countingToken{}
	c.tokens = tokens

	for i := 0; i < 3; i++ {
		report, err := c.GetOrganizerReport(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, report.TotalSold)
	}
	assert.Equal(t, 3, tokens.n)
}

type reportResult struct {
	report domain.OrganizerReport
	err    error
}

// blockingReport serves the report once release is closed and counts the
// requests that reached it.
func blockingReport(t *testing.T) (*Client, *atomic.Int32, <-chan struct{}, chan struct{}) {
	t.Helper()
	var hits atomic.Int32
	arrived := make(chan struct{}, 4)
	release := make(chan struct{})

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		arrived <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`{"totalSold":3,"gross":30,"fee":3,"net":27}`))
	}, staticToken("t"))

	return c, &hits, arrived, release
}

func fetchReport(ctx context.Context, c *Client) <-chan reportResult {
	out := make(chan reportResult, 1)
	go func() {
		r, err := c.GetOrganizerReport(ctx)
		out <- reportResult{r, err}
	}()
	return out
}

func TestConcurrentGetsShareOneRequest(t *testing.T) {
	c, hits, arrived, release := blockingReport(t)

	first := fetchReport(context.Background(), c)
	<-arrived
	second := fetchReport(context.Background(), c)
	time.Sleep(50 * time.Millisecond)
	close(release)

	for _, ch := range []<-chan reportResult{first, second} {
		res := <-ch
		require.NoError(t, res.err)
		assert.Equal(t, 3, res.report.TotalSold)
	}
	assert.EqualValues(t, 1, hits.Load())
}

func TestCancelledCallerLeavesSharedGetRunning(t *testing.T) {
	c, hits, arrived, release := blockingReport(t)

	ctx, cancel := context.WithCancel(context.Background())
	first := fetchReport(ctx, c)
	<-arrived
	second := fetchReport(context.Background(), c)
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case res := <-first:
		assert.ErrorIs(t, res.err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller is still waiting")
	}

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 3, res.report.TotalSold)
	assert.EqualValues(t, 1, hits.Load())
}
