package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nordsalg/advisor-api/internal/catalog"
	"github.com/nordsalg/advisor-api/internal/compare"
)

func fallbackPrices(prices map[string]catalog.Money) compare.PriceFor {
	return func(id string) (catalog.Money, bool) {
		p, ok := prices[id]
		return p, ok
	}
}

func TestOracleServesFeedPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/prices", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prices": {"netflix": 119}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, zerolog.Nop())
	oracle := client.Oracle(context.Background(), fallbackPrices(map[string]catalog.Money{"netflix": 114}))

	price, ok := oracle("netflix")
	require.True(t, ok)
	require.Equal(t, catalog.Money(119), price)
}

func TestOracleFallsBackPerService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices": {"netflix": 119}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, zerolog.Nop())
	oracle := client.Oracle(context.Background(), fallbackPrices(map[string]catalog.Money{"hbo": 99}))

	// not in the feed snapshot, resolved through the fallback
	price, ok := oracle("hbo")
	require.True(t, ok)
	require.Equal(t, catalog.Money(99), price)

	_, ok = oracle("unknown")
	require.False(t, ok)
}

func TestOracleFallsBackWhenFeedDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, zerolog.Nop())
	oracle := client.Oracle(context.Background(), fallbackPrices(map[string]catalog.Money{"netflix": 114}))

	price, ok := oracle("netflix")
	require.True(t, ok)
	require.Equal(t, catalog.Money(114), price)
}

func TestOracleFallbackTracksCatalogUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, zerolog.Nop())
	ctx := context.Background()

	oracle := client.Oracle(ctx, fallbackPrices(map[string]catalog.Money{"netflix": 114}))
	price, ok := oracle("netflix")
	require.True(t, ok)
	require.Equal(t, catalog.Money(114), price)

	// a later call with a reloaded catalog must see the new price, not the
	// one in effect when the client was built
	oracle = client.Oracle(ctx, fallbackPrices(map[string]catalog.Money{"netflix": 129}))
	price, ok = oracle("netflix")
	require.True(t, ok)
	require.Equal(t, catalog.Money(129), price)
}

func TestOracleRejectsNegativePrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices": {"netflix": -5}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, zerolog.Nop())
	oracle := client.Oracle(context.Background(), fallbackPrices(map[string]catalog.Money{"netflix": 114}))

	price, ok := oracle("netflix")
	require.True(t, ok)
	require.Equal(t, catalog.Money(114), price)
}

func TestOracleWithoutBaseURL(t *testing.T) {
	client := New("", zerolog.Nop())
	oracle := client.Oracle(context.Background(), fallbackPrices(map[string]catalog.Money{"netflix": 114}))

	price, ok := oracle("netflix")
	require.True(t, ok)
	require.Equal(t, catalog.Money(114), price)
}

func TestBreakerTripsAndRecovers(t *testing.T) {
	b := newBreaker(2, 50*time.Millisecond)

	require.True(t, b.allow())
	b.report(false)
	require.True(t, b.allow())
	b.report(false)

	// tripped
	require.False(t, b.allow())

	time.Sleep(60 * time.Millisecond)

	// half-open: one probe allowed, the next blocked until reported
	require.True(t, b.allow())
	require.False(t, b.allow())

	b.report(true)
	require.True(t, b.allow())
}

func TestBreakerKeepsFeedOutOfQuotePath(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL, zerolog.Nop())
	client.breaker = newBreaker(2, time.Hour)

	ctx := context.Background()
	fallback := fallbackPrices(map[string]catalog.Money{"netflix": 114})
	for i := 0; i < 5; i++ {
		oracle := client.Oracle(ctx, fallback)
		price, ok := oracle("netflix")
		require.True(t, ok)
		require.Equal(t, catalog.Money(114), price)
	}
	// two failures trip the breaker; later oracles never hit the feed
	require.Equal(t, 2, calls)
}
