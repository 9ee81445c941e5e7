package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/repository"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByIDForUpdate(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}
func (m *MockUserRepo) UpdateStatus(ctx context.Context, userID string, from, to domain.UserStatus) (bool, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Bool(0), args.Error(1)
}
func (m *MockUserRepo) MarkDebtors(ctx context.Context, userIDs []string) (int64, error) {
	args := m.Called(ctx, userIDs)
	return args.Get(0).(int64), args.Error(1)
}

// MockPlanRepo
type MockPlanRepo struct {
	mock.Mock
}

func (m *MockPlanRepo) Create(ctx context.Context, plan *domain.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}
func (m *MockPlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Plan), args.Error(1)
}
func (m *MockPlanRepo) List(ctx context.Context, userID string) ([]domain.Plan, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Plan), args.Error(1)
}
func (m *MockPlanRepo) CompleteIfFullyPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockInstallmentRepo
type MockInstallmentRepo struct {
	mock.Mock
}

func (m *MockInstallmentRepo) CreateBatch(ctx context.Context, installments []domain.Installment) error {
	args := m.Called(ctx, installments)
	return args.Error(0)
}
func (m *MockInstallmentRepo) ListByPlan(ctx context.Context, planID uuid.UUID) ([]domain.Installment, error) {
	args := m.Called(ctx, planID)
	return args.Get(0).([]domain.Installment), args.Error(1)
}
func (m *MockInstallmentRepo) ListByIDsForUser(ctx context.Context, userID string, ids []uuid.UUID) ([]domain.Installment, error) {
	args := m.Called(ctx, userID, ids)
	return args.Get(0).([]domain.Installment), args.Error(1)
}
func (m *MockInstallmentRepo) ListOverdueByUser(ctx context.Context, userID string) ([]domain.Installment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Installment), args.Error(1)
}
func (m *MockInstallmentRepo) HasOverdue(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
func (m *MockInstallmentRepo) MarkPaid(ctx context.Context, ids []uuid.UUID, paidAt time.Time) (int64, error) {
	args := m.Called(ctx, ids, paidAt)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockInstallmentRepo) ClaimOverdue(ctx context.Context, now time.Time, limit int) ([]repository.SweptInstallment, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]repository.SweptInstallment), args.Error(1)
}

// MockRefundRepo
type MockRefundRepo struct {
	mock.Mock
}

func (m *MockRefundRepo) Create(ctx context.Context, refund *domain.Refund) error {
	args := m.Called(ctx, refund)
	return args.Error(0)
}
func (m *MockRefundRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Refund), args.Error(1)
}
func (m *MockRefundRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Refund, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Refund), args.Error(1)
}
func (m *MockRefundRepo) List(ctx context.Context, userID string) ([]domain.Refund, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Refund), args.Error(1)
}
func (m *MockRefundRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.RefundStatus, reason string, processedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, reason, processedAt)
	return args.Bool(0), args.Error(1)
}

// MockIdempotencyRepo
type MockIdempotencyRepo struct {
	mock.Mock
}

func (m *MockIdempotencyRepo) GetForUpdate(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IdempotencyKey), args.Error(1)
}
func (m *MockIdempotencyRepo) Insert(ctx context.Context, rec *domain.IdempotencyKey) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
func (m *MockIdempotencyRepo) UpdateResponse(ctx context.Context, key string, response []byte) error {
	args := m.Called(ctx, key, response)
	return args.Error(0)
}
func (m *MockIdempotencyRepo) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
func (m *MockIdempotencyRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// fakeTx hands out the mock repositories as one transaction
type fakeTx struct {
	users        *MockUserRepo
	plans        *MockPlanRepo
	installments *MockInstallmentRepo
	refunds      *MockRefundRepo
	idempotency  *MockIdempotencyRepo
}

func newFakeTx() *fakeTx {
	return &fakeTx{
		users:        new(MockUserRepo),
		plans:        new(MockPlanRepo),
		installments: new(MockInstallmentRepo),
		refunds:      new(MockRefundRepo),
		idempotency:  new(MockIdempotencyRepo),
	}
}

func (t *fakeTx) Users() repository.UserRepository               { return t.users }
func (t *fakeTx) Plans() repository.PlanRepository               { return t.plans }
func (t *fakeTx) Installments() repository.InstallmentRepository { return t.installments }
func (t *fakeTx) Refunds() repository.RefundRepository           { return t.refunds }
func (t *fakeTx) Idempotency() repository.IdempotencyRepository  { return t.idempotency }

// fakeTxManager runs the callback against the fake transaction. Errors from
// the callback surface unchanged, mirroring a rollback.
type fakeTxManager struct {
	tx *fakeTx
}

func newFakeTxManager(tx *fakeTx) *fakeTxManager {
	return &fakeTxManager{tx: tx}
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return fn(m.tx)
}

// stubFreshKey lets guarded operations run first-time: the key is absent
// and every bookkeeping write succeeds.
func stubFreshKey(tx *fakeTx) {
	tx.idempotency.On("GetForUpdate", mock.Anything, mock.Anything).Return(nil, nil)
	tx.idempotency.On("Insert", mock.Anything, mock.Anything).Return(nil)
	tx.idempotency.On("UpdateResponse", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}
