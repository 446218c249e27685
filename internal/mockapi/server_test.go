package mockapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finboard/internal/api"
	"github.com/theirongolddev/finboard/internal/pipeline"
	"github.com/theirongolddev/finboard/internal/session"
)

// Friday; March's sample month has 2000 in and 9800 out.
var fixedNow = time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

func init() { gin.SetMode(gin.TestMode) }

func newClient(t *testing.T, opts ...api.Option) (*Server, *api.Client) {
	t.Helper()
	s := New(Options{Now: func() time.Time { return fixedNow }, Log: zerolog.Nop()})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	c, err := api.New(srv.URL+"/api/", opts...)
	require.NoError(t, err)
	return s, c
}

func loggedIn(t *testing.T) (*Server, *api.Client) {
	t.Helper()
	s, c := newClient(t)
	_, err := c.Login(context.Background(), DemoUser, DemoPassword)
	require.NoError(t, err)
	return s, c
}

func TestDataEndpointsRequireToken(t *testing.T) {
	_, c := newClient(t)
	_, err := c.ListTransactions(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	_, c = newClient(t, api.WithToken("bogus"))
	_, err = c.BudgetProgress(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestLogin(t *testing.T) {
	_, c := newClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, DemoUser, "wrong")
	assert.ErrorIs(t, err, api.ErrRequestFailed)
	assert.NotErrorIs(t, err, api.ErrUnauthorized)

	resp, err := c.Login(ctx, DemoUser, DemoPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, DemoUser, resp.User.Username)

	u, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, DemoEmail, u.Email)
}

func TestLogoutRevokesToken(t *testing.T) {
	s, c := loggedIn(t)
	tok := c.Token()
	require.Equal(t, s.Token(), tok)

	require.NoError(t, c.Logout(context.Background()))

	other, err := api.New(c.BaseURL(), api.WithToken(tok))
	require.NoError(t, err)
	_, err = other.CurrentUser(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestSignup(t *testing.T) {
	_, c := newClient(t)
	ctx := context.Background()

	_, err := c.Signup(ctx, api.SignupRequest{Username: "sam", Email: "sam@example.com", Password: "longenough", ConfirmPassword: "different"})
	assert.ErrorIs(t, err, api.ErrRequestFailed)

	_, err = c.Signup(ctx, api.SignupRequest{Username: DemoUser, Email: "x@example.com", Password: "longenough", ConfirmPassword: "longenough"})
	assert.ErrorIs(t, err, api.ErrRequestFailed)

	resp, err := c.Signup(ctx, api.SignupRequest{Username: "sam", Email: "sam@example.com", Password: "longenough", ConfirmPassword: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "Registration successful.", resp.Message)

	u, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sam", u.Username)
}

func TestSeededPagesValidateCleanly(t *testing.T) {
	_, c := loggedIn(t)
	l := pipeline.NewLoader(c, zerolog.Nop(), 5)
	ctx := context.Background()

	txs, err := l.Transactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs.Transactions, 12*6+2)
	assert.Empty(t, txs.Issues)
	assert.Contains(t, txs.Categories, "Housing")

	fc, err := l.Forecast(ctx)
	require.NoError(t, err)
	assert.Empty(t, fc.Issues)
	require.Len(t, fc.Forecast.Weeks, pipeline.ForecastWeeks)
	assert.Equal(t, "2024-03-11", fc.Forecast.Weeks[0].Start.Format(dateLayout))

	bp, err := l.Budget(ctx)
	require.NoError(t, err)
	assert.Empty(t, bp.Issues)
	require.Len(t, bp.Budget.Items, 5)
	housing := bp.Budget.Items[0]
	assert.Equal(t, "Housing", housing.Category)
	assert.Equal(t, "4410", housing.Spent.String())
	assert.Equal(t, "-2410", housing.Remaining.String())
	assert.True(t, housing.Consistent)
}

func TestSummaryWindow(t *testing.T) {
	_, c := loggedIn(t)
	sum, err := c.TransactionSummary(context.Background())
	require.NoError(t, err)

	require.NotNil(t, sum.Completed)
	assert.Equal(t, "2000", sum.Completed.TotalIncome.Decimal.String())
	assert.Equal(t, "8119.6", sum.Completed.TotalExpenses.Decimal.String())
	assert.Equal(t, "-6119.6", sum.Completed.NetAmount.Decimal.String())

	require.NotNil(t, sum.Pending)
	assert.Equal(t, "1250", sum.Pending.TotalIncome.Decimal.String())
	assert.Equal(t, "3718.6", sum.Pending.TotalExpenses.Decimal.String())
}

func TestCreateTransaction(t *testing.T) {
	_, c := loggedIn(t)
	ctx := context.Background()

	_, err := c.CreateTransaction(ctx, api.NewTransaction{
		Description: "Bad", Amount: "-5", Type: "expense", Category: "3", Date: "2024-03-14",
	})
	assert.ErrorIs(t, err, api.ErrRequestFailed)

	_, err = c.CreateTransaction(ctx, api.NewTransaction{
		Description: "Lunch", Amount: "12.50", Type: "expense", Category: "99", Date: "2024-03-14",
	})
	assert.ErrorIs(t, err, api.ErrRequestFailed)

	created, err := c.CreateTransaction(ctx, api.NewTransaction{
		Description: "Lunch", Amount: "12.50", Type: "expense", Category: "3", Date: "2024-03-14", Client: "Globex",
	})
	require.NoError(t, err)
	assert.Equal(t, api.FlexID("75"), created.ID)
	assert.True(t, created.Completed)
	assert.Equal(t, api.FlexID("3"), created.Category.ID)

	txs, err := c.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 75)
}

func TestCreateCategory(t *testing.T) {
	_, c := loggedIn(t)
	ctx := context.Background()

	_, err := c.CreateCategory(ctx, api.NewCategory{Name: "ab"})
	assert.ErrorIs(t, err, api.ErrRequestFailed)

	cat, err := c.CreateCategory(ctx, api.NewCategory{Name: "Travel", Description: "Flights"})
	require.NoError(t, err)
	assert.Equal(t, "Travel", cat.Name)

	_, err = c.CreateCategory(ctx, api.NewCategory{Name: "travel"})
	assert.ErrorIs(t, err, api.ErrRequestFailed)

	cats, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(seedCategories)+1)
}

type memTokens struct{ token string }

func (m *memTokens) LoadToken() (string, error) { return m.token, nil }
func (m *memTokens) SaveToken(t string) error   { m.token = t; return nil }
func (m *memTokens) ClearToken() error          { m.token = ""; return nil }

func TestSessionRoundTrip(t *testing.T) {
	_, c := newClient(t)
	tokens := &memTokens{}
	sess := session.New(c, tokens, zerolog.Nop())
	ctx := context.Background()

	assert.Equal(t, session.StateAnonymous, sess.Init(ctx))
	require.NoError(t, sess.Login(ctx, DemoUser, DemoPassword))
	assert.True(t, sess.Authenticated())
	assert.NotEmpty(t, tokens.token)

	// A fresh client restores the persisted token.
	_, err := c.ListTransactions(ctx)
	require.NoError(t, err)
	fresh, err := api.New(c.BaseURL())
	require.NoError(t, err)
	restored := session.New(fresh, tokens, zerolog.Nop())
	assert.Equal(t, session.StateAuthenticated, restored.Init(ctx))
	u, ok := restored.User()
	require.True(t, ok)
	assert.Equal(t, DemoUser, u.Username)
}
