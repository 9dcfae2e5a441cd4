// Package rest implements the ReviewStore interface against the remote
// backend's REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/ovenbird/cakeshop-reviews/internal/config"
	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/metrics"
)

// errNotFound marks a 404 inside the breaker so it does not count as a
// backend failure.
var errNotFound = errors.New("not found")

var errBadRequest = errors.New("bad request")

// Client talks to the review store over HTTP. Every call is bounded by the
// configured timeout; repeated backend failures open a circuit breaker so
// callers fail fast instead of stacking up on a dead backend.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewClient creates a REST review store client.
func NewClient(cfg config.StoreConfig, m *metrics.Metrics, log *logger.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "review-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound) || errors.Is(err, errBadRequest)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Review store circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  log,
		metrics: m,
	}
}

// AllReviews retrieves every review across all products.
func (c *Client) AllReviews(ctx context.Context) ([]*domain.Review, error) {
	var reviews []*domain.Review
	if err := c.get(ctx, "all_reviews", "/reviews", &reviews); err != nil {
		return nil, c.readErr("rest.AllReviews", err)
	}
	return reviews, nil
}

// ReviewsByProduct retrieves reviews for a single product.
func (c *Client) ReviewsByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	path := "/reviews?product=" + url.QueryEscape(productID.String())
	var reviews []*domain.Review
	if err := c.get(ctx, "reviews_by_product", path, &reviews); err != nil {
		return nil, c.readErr("rest.ReviewsByProduct", err)
	}
	return reviews, nil
}

// CreateReview writes a new review. All failures surface as write errors;
// retry is the caller's responsibility.
func (c *Client) CreateReview(ctx context.Context, review *domain.Review) error {
	var created domain.Review
	if err := c.do(ctx, "create_review", http.MethodPost, "/reviews", review, &created); err != nil {
		if errors.Is(err, errBadRequest) {
			return domain.E(domain.KindInvalidInput, "rest.CreateReview", err)
		}
		return domain.E(domain.KindWrite, "rest.CreateReview", err)
	}
	review.ID = created.ID
	review.CreatedAt = created.CreatedAt
	return nil
}

type batchRatingsRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
}

// BatchRatings fetches scalar aggregates for the given products in one call.
func (c *Client) BatchRatings(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.BatchRating, error) {
	var ratings map[uuid.UUID]domain.BatchRating
	err := c.do(ctx, "batch_ratings", http.MethodPost, "/batch-ratings", batchRatingsRequest{ProductIDs: productIDs}, &ratings)
	if err != nil {
		return nil, c.readErr("rest.BatchRatings", err)
	}
	return ratings, nil
}

// BillSnapshot retrieves the bill line item / review join for one account.
func (c *Client) BillSnapshot(ctx context.Context, billID, accountID uuid.UUID) (*domain.BillSnapshot, error) {
	path := fmt.Sprintf("/bills/%s/review-status?account=%s", billID.String(), url.QueryEscape(accountID.String()))
	var snapshot domain.BillSnapshot
	if err := c.get(ctx, "bill_snapshot", path, &snapshot); err != nil {
		return nil, c.readErr("rest.BillSnapshot", err)
	}
	return &snapshot, nil
}

type accountResponse struct {
	DisplayName string `json:"display_name"`
}

// AccountName resolves an account's display name.
func (c *Client) AccountName(ctx context.Context, accountID uuid.UUID) (string, error) {
	var account accountResponse
	if err := c.get(ctx, "account_name", "/accounts/"+accountID.String(), &account); err != nil {
		return "", c.readErr("rest.AccountName", err)
	}
	return account.DisplayName, nil
}

func (c *Client) get(ctx context.Context, op, path string, out interface{}) error {
	return c.do(ctx, op, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	start := time.Now()
	defer func() {
		c.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	payload, err := c.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, errNotFound
		case resp.StatusCode == http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", errBadRequest, string(data))
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("store returned status %d", resp.StatusCode)
		}

		return data, nil
	})
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("failed to decode store response: %w", err)
		}
	}
	return nil
}

// readErr maps read-path failures onto the error taxonomy. Anything that is
// not a definite not-found or validation failure is treated as transient so
// callers can fall back to cached values.
func (c *Client) readErr(op string, err error) error {
	switch {
	case errors.Is(err, errNotFound):
		return domain.E(domain.KindNotFound, op, err)
	case errors.Is(err, errBadRequest):
		return domain.E(domain.KindInvalidInput, op, err)
	default:
		return domain.E(domain.KindTransientFetch, op, err)
	}
}
