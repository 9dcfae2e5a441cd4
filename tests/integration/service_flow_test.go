//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovenbird/cakeshop-reviews/internal/cache"
	"github.com/ovenbird/cakeshop-reviews/internal/config"
	httpDelivery "github.com/ovenbird/cakeshop-reviews/internal/delivery/http"
	"github.com/ovenbird/cakeshop-reviews/internal/delivery/http/handler"
	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/metrics"
	"github.com/ovenbird/cakeshop-reviews/internal/store/rest"
	"github.com/ovenbird/cakeshop-reviews/internal/usecase/eligibility"
	"github.com/ovenbird/cakeshop-reviews/internal/usecase/rating"
	"github.com/ovenbird/cakeshop-reviews/internal/usecase/review"
)

// fakeUpstream is an in-memory stand-in for the review store REST API.
type fakeUpstream struct {
	mu      sync.Mutex
	reviews []*domain.Review
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/reviews", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if r.Method == http.MethodPost {
			var rev domain.Review
			if err := json.NewDecoder(r.Body).Decode(&rev); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			rev.ID = uuid.New()
			rev.CreatedAt = time.Now().UTC()
			stored := rev
			f.reviews = append(f.reviews, &stored)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(&rev)
			return
		}

		product := r.URL.Query().Get("product")
		out := make([]*domain.Review, 0, len(f.reviews))
		for _, rev := range f.reviews {
			if product == "" || rev.ProductID.String() == product {
				out = append(out, rev)
			}
		}
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("/batch-ratings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		var req struct {
			ProductIDs []uuid.UUID `json:"product_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		ratings := make(map[uuid.UUID]domain.BatchRating)
		for _, id := range req.ProductIDs {
			var sum, count int
			for _, rev := range f.reviews {
				if rev.ProductID == id && rev.ParticipatesInRating() {
					sum += rev.StarRating
					count++
				}
			}
			if count > 0 {
				avg := float64(sum) / float64(count)
				ratings[id] = domain.BatchRating{
					AverageRating: float64(int(avg*10+0.5)) / 10,
					TotalReviews:  count,
				}
			}
		}
		json.NewEncoder(w).Encode(ratings)
	})

	mux.HandleFunc("/accounts/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"display_name": "Test Customer"})
	})

	mux.HandleFunc("/bills/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		billID, err := uuid.Parse(parts[1])
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		accountID, err := uuid.Parse(r.URL.Query().Get("account"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(&domain.BillSnapshot{
			BillID:    billID,
			AccountID: accountID,
			Status:    "delivered",
			Lines: []domain.BillLine{
				{BillDetailID: uuid.New(), ProductID: uuid.New(), ProductName: "Red Velvet"},
			},
		})
	})

	return mux
}

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ string, _ []byte) error { return nil }
func (noopPublisher) Broadcast(_ string, _ []byte) error                  { return nil }

func setupTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)

	log := logger.New(cfg.Env)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	upstream := httptest.NewServer((&fakeUpstream{}).handler())
	t.Cleanup(upstream.Close)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	storeCfg := cfg.Store
	storeCfg.BaseURL = upstream.URL
	store := rest.NewClient(storeCfg, m, log)

	bus := cache.NewBus()
	reviewCache := cache.NewReviewCache(cfg.Cache.ReviewsTTL, cfg.Cache.SnapshotTTL, bus, m, nil)
	batchCache := cache.NewBatchRatingCache(cfg.Cache.BatchRatingTTL, bus, m, nil)
	billStatusCache := cache.NewBillStatusCache(redisClient, bus, m, log)

	reviewService := review.NewService(store, reviewCache, bus, noopPublisher{}, m, log, cfg.Store.Timeout, nil)
	ratingService := rating.NewService(store, batchCache, log, cfg.Store.Timeout, cfg.Batch.ChunkSize, cfg.Batch.YieldInterval, nil)
	eligibilityService := eligibility.NewService(store, billStatusCache, log, cfg.Store.Timeout)

	reviewHandler := handler.NewReviewHandler(reviewService, log)
	ratingHandler := handler.NewRatingHandler(ratingService, log)
	billHandler := handler.NewBillHandler(eligibilityService, log)

	router := httpDelivery.NewRouter(reviewHandler, ratingHandler, billHandler, registry, cfg, log)
	return router.Setup()
}

func postJSON(t *testing.T, server http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, server http.Handler, path string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func TestReadAfterWrite(t *testing.T) {
	server := setupTestServer(t)
	productID := uuid.New()
	accountID := uuid.New()

	// Warm the cache with an empty rating for the product.
	var before struct {
		Data domain.RatingSummary `json:"data"`
	}
	w := getJSON(t, server, fmt.Sprintf("/api/v1/products/%s/rating", productID), &before)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, before.Data.TotalReviews)

	w = postJSON(t, server, "/api/v1/reviews", map[string]interface{}{
		"product_id":  productID.String(),
		"account_id":  accountID.String(),
		"star_rating": 5,
		"content":     "Perfect ganache",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The write invalidated the cached entry, so the summary reflects the
	// review immediately, inside the TTL window.
	var after struct {
		Data domain.RatingSummary `json:"data"`
	}
	w = getJSON(t, server, fmt.Sprintf("/api/v1/products/%s/rating", productID), &after)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, after.Data.TotalReviews)
	assert.Equal(t, 5.0, after.Data.AverageRating)
}

func TestBatchMatchesSummary(t *testing.T) {
	server := setupTestServer(t)
	productID := uuid.New()

	for _, stars := range []int{5, 4, 5, 3, 5} {
		w := postJSON(t, server, "/api/v1/reviews", map[string]interface{}{
			"product_id":  productID.String(),
			"account_id":  uuid.NewString(),
			"star_rating": stars,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	var summary struct {
		Data domain.RatingSummary `json:"data"`
	}
	w := getJSON(t, server, fmt.Sprintf("/api/v1/products/%s/rating", productID), &summary)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4.4, summary.Data.AverageRating)
	assert.Equal(t, 5, summary.Data.TotalReviews)

	var batch struct {
		Data map[string]domain.BatchRating `json:"data"`
	}
	w = postJSON(t, server, "/api/v1/ratings/batch", map[string]interface{}{
		"product_ids": []string{productID.String()},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	assert.Equal(t, summary.Data.AverageRating, batch.Data[productID.String()].AverageRating)
	assert.Equal(t, summary.Data.TotalReviews, batch.Data[productID.String()].TotalReviews)
}

func TestReviewsIncludeReviewerNames(t *testing.T) {
	server := setupTestServer(t)
	productID := uuid.New()

	w := postJSON(t, server, "/api/v1/reviews", map[string]interface{}{
		"product_id":  productID.String(),
		"account_id":  uuid.NewString(),
		"star_rating": 4,
		"content":     "Nice crumb",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var reviews struct {
		Data []domain.EnrichedReview `json:"data"`
	}
	w = getJSON(t, server, fmt.Sprintf("/api/v1/products/%s/reviews", productID), &reviews)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, reviews.Data, 1)
	assert.Equal(t, "Test Customer", reviews.Data[0].ReviewerName)
}

func TestBillReviewStatusFlow(t *testing.T) {
	server := setupTestServer(t)
	billID := uuid.New()
	accountID := uuid.New()

	var status struct {
		Data domain.BillReviewStatus `json:"data"`
	}
	w := getJSON(t, server, fmt.Sprintf("/api/v1/bills/%s/review-status?account=%s", billID, accountID), &status)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, status.Data.CanReview)
	assert.Len(t, status.Data.Products, 1)
}

func TestCacheClearEndpoint(t *testing.T) {
	server := setupTestServer(t)

	w := postJSON(t, server, "/api/v1/cache/clear", map[string]interface{}{})
	assert.Equal(t, http.StatusNoContent, w.Code)
}
