package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api", opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsNonHTTP(t *testing.T) {
	_, err := New("ftp://example.com/api/")
	assert.Error(t, err)

	c, err := New("http://localhost:8000/api")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/", c.BaseURL())
}

func TestClient_SendsCredentials(t *testing.T) {
	var gotAuth, gotReqID, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `[]`)
	}, WithToken("abc123"))

	_, err := c.BudgetProgress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Token abc123", gotAuth)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, "/api/budgets/progress", gotPath)
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	status := http.StatusInternalServerError
	body := `{}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	ctx := context.Background()

	_, err := c.ListTransactions(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.Status)

	status = http.StatusUnauthorized
	_, err = c.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.ErrorIs(t, err, ErrUnauthorized)

	status = http.StatusOK
	body = `{"completed": [`
	_, err = c.TransactionSummary(ctx)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.False(t, errors.Is(err, ErrRequestFailed))
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = c.Forecast13Week(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListTransactions(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_DecodesPaginatedList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":1,"results":[{"id":3,"name":"Rent"}]}`)
	})
	cats, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, FlexID("3"), cats[0].ID)
	assert.Equal(t, "Rent", cats[0].Name)
}

func TestClient_CoalescesCategoryFetches(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = io.WriteString(w, `[{"id":1,"name":"Food"}]`)
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cats, err := c.ListCategories(context.Background())
			assert.NoError(t, err)
			assert.Len(t, cats, 1)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_SharedCategoryFetchSurvivesFirstCallerCancel(t *testing.T) {
	var hits atomic.Int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		arrived <- struct{}{}
		<-release
		_, _ = io.WriteString(w, `[{"id":1,"name":"Food"}]`)
	})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.ListCategories(firstCtx)
		firstErr <- err
	}()
	<-arrived

	type result struct {
		cats []Category
		err  error
	}
	second := make(chan result, 1)
	go func() {
		cats, err := c.ListCategories(context.Background())
		second <- result{cats, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	err := <-firstErr
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrRequestFailed)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	require.Len(t, got.cats, 1)
	assert.Equal(t, "Food", got.cats[0].Name)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_LoginStoresToken(t *testing.T) {
	var lastAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/auth/login/":
			var req LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "secret" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = io.WriteString(w, `{"token":"tok-1","user":{"id":7,"username":"ada","email":"ada@example.com"}}`)
		case "/api/auth/logout/":
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = io.WriteString(w, `{"id":7,"username":"ada"}`)
		}
	})
	ctx := context.Background()

	_, err := c.Login(ctx, "ada", "wrong")
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Empty(t, c.Token())

	resp, err := c.Login(ctx, "ada", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ada", resp.User.Username)
	assert.Equal(t, FlexID("7"), resp.User.ID)
	assert.Equal(t, "tok-1", c.Token())

	_, err = c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Token tok-1", lastAuth)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Token())
}

func TestClient_CreateTransactionBody(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":11,"description":"Rent","amount":"1200.00","type":"expense","date":"2024-03-01","category":4}`)
	})

	tx, err := c.CreateTransaction(context.Background(), NewTransaction{
		Description: "Rent",
		Amount:      "1200.00",
		Type:        "expense",
		Category:    "4",
		Date:        "2024-03-01",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(4), got["category"])
	assert.Equal(t, "2024-03-01", got["date"])
	assert.NotContains(t, got, "client")
	assert.Equal(t, "1200", tx.Amount.Decimal.String())
	assert.False(t, tx.Category.Nested)
	assert.Equal(t, FlexID("4"), tx.Category.ID)
}

type memRecorder map[string]string

func (m memRecorder) Record(path string, body []byte) error {
	m[path] = string(body)
	return nil
}

func TestClient_RecordsGetBodies(t *testing.T) {
	rec := memRecorder{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}, WithRecorder(rec))

	_, err := c.Forecast13Week(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[]", rec[PathForecast])
}
