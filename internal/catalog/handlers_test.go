package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nordsalg/advisor-api/internal/catalog"
)

type stubSource struct {
	catalog *catalog.Catalog
	err     error
	loads   int
}

func (s *stubSource) Load(context.Context) (*catalog.Catalog, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.catalog, nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(`{
		"plans": [
			{"id": "telmore-basic", "name": "Telmore Basic", "provider": "telmore", "price": 129, "earnings": 500, "familyDiscountEligible": true},
			{"id": "yousee-play", "name": "YouSee Play", "provider": "yousee", "price": 249, "earnings": 700, "streamingSlotCapacity": 2}
		],
		"streamingServices": [
			{"id": "netflix", "name": "Netflix", "price": 114}
		]
	}`))
	require.NoError(t, err)
	return c
}

func newTestService(t *testing.T, source catalog.Source, cache *catalog.Cache) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Source:     source,
		SourceName: "test",
		Cache:      cache,
		Logger:     zerolog.Nop(),
		TTL:        time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestSnapshotServesAndReuses(t *testing.T) {
	source := &stubSource{catalog: testCatalog(t)}
	svc := newTestService(t, source, nil)

	ctx := context.Background()
	first, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, first.Plans, 2)

	_, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, source.loads)
}

func TestSnapshotKeepsLastGoodOnReloadFailure(t *testing.T) {
	source := &stubSource{catalog: testCatalog(t)}
	svc := newTestService(t, source, nil)

	ctx := context.Background()
	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	source.err = errors.New("source down")
	require.Error(t, svc.Reload(ctx))

	snapshot, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Plans, 2)
}

func TestSnapshotRedisFallback(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	cache := catalog.NewCache(client, time.Hour)

	ctx := context.Background()

	// first instance populates the redis copy
	warm := newTestService(t, &stubSource{catalog: testCatalog(t)}, cache)
	_, err = warm.Snapshot(ctx)
	require.NoError(t, err)

	// second instance never reaches the source but serves from redis
	cold := newTestService(t, &stubSource{err: errors.New("source down")}, cache)
	snapshot, err := cold.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Plans, 2)

	plan, ok := snapshot.PlanByID("yousee-play")
	require.True(t, ok)
	require.Equal(t, catalog.BundlingCapacity, plan.Bundling.Kind)
}

func TestCatalogHandlers(t *testing.T) {
	svc := newTestService(t, &stubSource{catalog: testCatalog(t)}, nil)
	handler := catalog.NewHandler(svc)

	t.Run("plans", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.Plans(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/plans", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Data []catalog.Plan `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
	})

	t.Run("streaming services", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.StreamingServices(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/streaming-services", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Data []catalog.StreamingService `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "netflix", resp.Data[0].ID)
	})

	t.Run("unavailable", func(t *testing.T) {
		broken := newTestService(t, &stubSource{err: errors.New("source down")}, nil)
		rr := httptest.NewRecorder()
		catalog.NewHandler(broken).Plans(rr, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/plans", nil))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
