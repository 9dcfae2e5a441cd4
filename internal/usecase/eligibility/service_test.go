package eligibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ovenbird/cakeshop-reviews/internal/cache"
	"github.com/ovenbird/cakeshop-reviews/internal/domain"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/logger"
	"github.com/ovenbird/cakeshop-reviews/internal/pkg/metrics"
)

type MockReviewStore struct {
	mock.Mock
}

func (m *MockReviewStore) AllReviews(ctx context.Context) ([]*domain.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewStore) ReviewsByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewStore) CreateReview(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewStore) BatchRatings(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.BatchRating, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]domain.BatchRating), args.Error(1)
}

func (m *MockReviewStore) BillSnapshot(ctx context.Context, billID, accountID uuid.UUID) (*domain.BillSnapshot, error) {
	args := m.Called(ctx, billID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillSnapshot), args.Error(1)
}

func (m *MockReviewStore) AccountName(ctx context.Context, accountID uuid.UUID) (string, error) {
	args := m.Called(ctx, accountID)
	return args.String(0), args.Error(1)
}

type fixture struct {
	store   *MockReviewStore
	bus     *cache.Bus
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := new(MockReviewStore)
	bus := cache.NewBus()
	m := metrics.New(prometheus.NewRegistry())
	log := logger.New("test")
	status := cache.NewBillStatusCache(client, bus, m, log)
	svc := NewService(store, status, log, time.Second)
	return &fixture{store: store, bus: bus, service: svc}
}

func billSnapshot(billID, accountID uuid.UUID, status domain.BillStatus, lines ...domain.BillLine) *domain.BillSnapshot {
	return &domain.BillSnapshot{
		BillID:    billID,
		AccountID: accountID,
		Status:    status,
		Lines:     lines,
	}
}

func line(productID uuid.UUID, reviewID *uuid.UUID) domain.BillLine {
	return domain.BillLine{
		BillDetailID: uuid.New(),
		ProductID:    productID,
		ProductName:  "Victoria Sponge",
		ReviewID:     reviewID,
	}
}

func TestCheckBillReviewStatus_DeliveredUnreviewedIsEligible(t *testing.T) {
	f := newFixture(t)
	billID, accountID, productID := uuid.New(), uuid.New(), uuid.New()
	f.store.On("BillSnapshot", mock.Anything, billID, accountID).
		Return(billSnapshot(billID, accountID, "delivered", line(productID, nil)), nil).Once()

	got, err := f.service.CheckBillReviewStatus(context.Background(), billID, accountID)

	assert.NoError(t, err)
	assert.True(t, got.CanReview)
	assert.False(t, got.AllReviewed)
	assert.Len(t, got.Products, 1)
	assert.True(t, got.Products[0].CanReview)
	assert.False(t, got.Products[0].HasReviewed)
}

func TestCheckBillReviewStatus_PendingBillNotEligible(t *testing.T) {
	f := newFixture(t)
	billID, accountID := uuid.New(), uuid.New()
	f.store.On("BillSnapshot", mock.Anything, billID, accountID).
		Return(billSnapshot(billID, accountID, "pending", line(uuid.New(), nil)), nil).Once()

	got, err := f.service.CheckBillReviewStatus(context.Background(), billID, accountID)

	assert.NoError(t, err)
	assert.False(t, got.CanReview)
	assert.False(t, got.Products[0].CanReview)
}

func TestCheckBillReviewStatus_StatusCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	billID, accountID := uuid.New(), uuid.New()
	f.store.On("BillSnapshot", mock.Anything, billID, accountID).
		Return(billSnapshot(billID, accountID, "Delivered", line(uuid.New(), nil)), nil).Once()

	got, err := f.service.CheckBillReviewStatus(context.Background(), billID, accountID)

	assert.NoError(t, err)
	assert.True(t, got.CanReview)
}

func TestCheckBillReviewStatus_AllReviewedBill(t *testing.T) {
	f := newFixture(t)
	billID, accountID := uuid.New(), uuid.New()
	reviewID := uuid.New()
	f.store.On("BillSnapshot", mock.Anything, billID, accountID).
		Return(billSnapshot(billID, accountID, "completed", line(uuid.New(), &reviewID)), nil).Once()

	got, err := f.service.CheckBillReviewStatus(context.Background(), billID, accountID)

	assert.NoError(t, err)
	assert.True(t, got.AllReviewed)
	assert.False(t, got.CanReview)
	assert.True(t, got.Products[0].HasReviewed)
	assert.Equal(t, reviewID, *got.Products[0].ReviewID)
}

func TestCheckBillReviewStatus_EmptyBillVacuouslyReviewed(t *testing.T) {
	f := newFixture(t)
	billID, accountID := uuid.New(), uuid.New()
	f.store.On("BillSnapshot", mock.Anything, billID, accountID).
		Return(billSnapshot(billID, accountID, "delivered"), nil).Once()

	got, err := f.service.CheckBillReviewStatus(context.Background(), billID, accountID)

	assert.NoError(t, err)
	assert.True(t, got.AllReviewed)
	assert.False(t, got.CanReview)
	assert.Empty(t, got.Products)
}

func TestCheckBillReviewStatus_SecondCallServedFromCache(t *testing.T) {
	f := newFixture(t)
	billID, accountID := uuid.New(), uuid.New()
	f.store.On("BillSnapshot", mock.Anything, billID, accountID).
		Return(billSnapshot(billID, accountID, "delivered", line(uuid.New(), nil)), nil).Once()

	first, err := f.service.CheckBillReviewStatus(context.Background(), billID, accountID)
	assert.NoError(t, err)
	second, err := f.service.CheckBillReviewStatus(context.Background(), billID, accountID)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	f.store.AssertNumberOfCalls(t, "BillSnapshot", 1)
}

func TestCheckBillReviewStatus_InvalidationForcesRefetch(t *testing.T) {
	f := newFixture(t)
	billID, accountID, productID := uuid.New(), uuid.New(), uuid.New()
	f.store.On("BillSnapshot", mock.Anything, billID, accountID).
		Return(billSnapshot(billID, accountID, "delivered", line(productID, nil)), nil)

	_, err := f.service.CheckBillReviewStatus(context.Background(), billID, accountID)
	assert.NoError(t, err)

	f.bus.PublishProduct(cache.ProductInvalidation{
		ProductID: productID,
		AccountID: accountID,
		At:        time.Now(),
	})

	_, err = f.service.CheckBillReviewStatus(context.Background(), billID, accountID)
	assert.NoError(t, err)
	f.store.AssertNumberOfCalls(t, "BillSnapshot", 2)
}

func TestCheckBillReviewStatus_UnknownBill(t *testing.T) {
	f := newFixture(t)
	billID, accountID := uuid.New(), uuid.New()
	f.store.On("BillSnapshot", mock.Anything, billID, accountID).
		Return(nil, domain.E(domain.KindNotFound, "store.BillSnapshot", domain.ErrNotFound)).Once()

	_, err := f.service.CheckBillReviewStatus(context.Background(), billID, accountID)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCheckProductReviewStatus_FindsLine(t *testing.T) {
	f := newFixture(t)
	billID, accountID, productID := uuid.New(), uuid.New(), uuid.New()
	f.store.On("BillSnapshot", mock.Anything, billID, accountID).
		Return(billSnapshot(billID, accountID, "delivered", line(productID, nil)), nil).Once()

	got, err := f.service.CheckProductReviewStatus(context.Background(), billID, accountID, productID)

	assert.NoError(t, err)
	assert.Equal(t, productID, got.ProductID)
	assert.True(t, got.CanReview)
}

func TestCheckProductReviewStatus_ProductNotOnBill(t *testing.T) {
	f := newFixture(t)
	billID, accountID := uuid.New(), uuid.New()
	f.store.On("BillSnapshot", mock.Anything, billID, accountID).
		Return(billSnapshot(billID, accountID, "delivered", line(uuid.New(), nil)), nil).Once()

	_, err := f.service.CheckProductReviewStatus(context.Background(), billID, accountID, uuid.New())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
