package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/repository"
	"bnpl-debt-service/internal/service"
)

func newDebtFixture(sweepBatchSize int) (*fakeTx, service.DebtService) {
	tx := newFakeTx()
	txm := newFakeTxManager(tx)
	guard := service.NewIdempotencyGuard(txm, time.Hour)
	svc := service.NewDebtService(txm, tx.users, tx.installments, guard, sweepBatchSize)
	return tx, svc
}

func TestDebtService_CheckDebt(t *testing.T) {
	ctx := context.Background()

	t.Run("User With Overdue Debt", func(t *testing.T) {
		tx, svc := newDebtFixture(0)
		debtor := normalUser("usr-1")
		debtor.Status = domain.UserStatusDebtUser
		tx.users.On("GetByID", ctx, "usr-1").Return(debtor, nil)
		tx.installments.On("ListOverdueByUser", ctx, "usr-1").Return([]domain.Installment{
			{ID: uuid.New(), AmountDue: decimal.RequireFromString("166.67"), Status: domain.InstallmentStatusOverdue},
			{ID: uuid.New(), AmountDue: decimal.RequireFromString("166.66"), Status: domain.InstallmentStatusOverdue},
		}, nil)

		summary, err := svc.CheckDebt(ctx, "usr-1")
		require.NoError(t, err)
		assert.Equal(t, domain.UserStatusDebtUser, summary.UserStatus)
		assert.True(t, summary.HasOverdue)
		assert.True(t, summary.TotalDebt.Equal(decimal.RequireFromString("333.33")), "got %s", summary.TotalDebt)
		assert.Len(t, summary.OverdueInstallments, 2)
	})

	t.Run("Clean User", func(t *testing.T) {
		tx, svc := newDebtFixture(0)
		tx.users.On("GetByID", ctx, "usr-2").Return(normalUser("usr-2"), nil)
		tx.installments.On("ListOverdueByUser", ctx, "usr-2").Return([]domain.Installment{}, nil)

		summary, err := svc.CheckDebt(ctx, "usr-2")
		require.NoError(t, err)
		assert.False(t, summary.HasOverdue)
		assert.True(t, summary.TotalDebt.IsZero())
		assert.NotNil(t, summary.OverdueInstallments)
	})

	t.Run("Unknown User", func(t *testing.T) {
		tx, svc := newDebtFixture(0)
		tx.users.On("GetByID", ctx, "ghost").Return(nil, &domain.NotFoundError{Entity: "user", ID: "ghost"})

		_, err := svc.CheckDebt(ctx, "ghost")
		var notFound *domain.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestDebtService_ProcessRepayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Clears Debt Status When Last Overdue Paid", func(t *testing.T) {
		tx, svc := newDebtFixture(0)
		debtor := normalUser("usr-1")
		debtor.Status = domain.UserStatusDebtUser
		planID := uuid.New()
		ids := []uuid.UUID{uuid.New(), uuid.New()}

		tx.users.On("GetByID", ctx, "usr-1").Return(debtor, nil)
		tx.installments.On("ListByIDsForUser", ctx, "usr-1", ids).Return([]domain.Installment{
			{ID: ids[0], PlanID: planID, Status: domain.InstallmentStatusOverdue},
			{ID: ids[1], PlanID: planID, Status: domain.InstallmentStatusUpcoming},
		}, nil)
		tx.installments.On("MarkPaid", ctx, ids, mock.AnythingOfType("time.Time")).Return(int64(2), nil)
		tx.plans.On("CompleteIfFullyPaid", ctx, planID).Return(true, nil)
		tx.installments.On("HasOverdue", ctx, "usr-1").Return(false, nil)
		tx.users.On("UpdateStatus", ctx, "usr-1", domain.UserStatusDebtUser, domain.UserStatusNormal).Return(true, nil)
		tx.installments.On("ListOverdueByUser", ctx, "usr-1").Return([]domain.Installment{}, nil)

		summary, applied, err := svc.ProcessRepayment(ctx, "usr-1", ids, "")
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, domain.UserStatusNormal, summary.UserStatus)
		assert.False(t, summary.HasOverdue)
		tx.users.AssertCalled(t, "UpdateStatus", ctx, "usr-1", domain.UserStatusDebtUser, domain.UserStatusNormal)
	})

	t.Run("Partial Repayment Leaves Debt Status", func(t *testing.T) {
		tx, svc := newDebtFixture(0)
		debtor := normalUser("usr-1")
		debtor.Status = domain.UserStatusDebtUser
		planID := uuid.New()
		remaining := domain.Installment{
			ID:        uuid.New(),
			PlanID:    planID,
			AmountDue: decimal.RequireFromString("166.66"),
			Status:    domain.InstallmentStatusOverdue,
		}
		ids := []uuid.UUID{uuid.New()}

		tx.users.On("GetByID", ctx, "usr-1").Return(debtor, nil)
		tx.installments.On("ListByIDsForUser", ctx, "usr-1", ids).Return([]domain.Installment{
			{ID: ids[0], PlanID: planID, Status: domain.InstallmentStatusOverdue},
		}, nil)
		tx.installments.On("MarkPaid", ctx, ids, mock.AnythingOfType("time.Time")).Return(int64(1), nil)
		tx.plans.On("CompleteIfFullyPaid", ctx, planID).Return(false, nil)
		tx.installments.On("HasOverdue", ctx, "usr-1").Return(true, nil)
		tx.installments.On("ListOverdueByUser", ctx, "usr-1").Return([]domain.Installment{remaining}, nil)

		summary, applied, err := svc.ProcessRepayment(ctx, "usr-1", ids, "")
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, domain.UserStatusDebtUser, summary.UserStatus)
		assert.True(t, summary.HasOverdue)
		tx.users.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Foreign Installment Fails Whole Request", func(t *testing.T) {
		tx, svc := newDebtFixture(0)
		ids := []uuid.UUID{uuid.New(), uuid.New()}
		tx.users.On("GetByID", ctx, "usr-1").Return(normalUser("usr-1"), nil)
		tx.installments.On("ListByIDsForUser", ctx, "usr-1", ids).Return([]domain.Installment{
			{ID: ids[0], Status: domain.InstallmentStatusUpcoming},
		}, nil)

		_, _, err := svc.ProcessRepayment(ctx, "usr-1", ids, "")
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		tx.installments.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Already Paid Installments Are Skipped", func(t *testing.T) {
		tx, svc := newDebtFixture(0)
		planID := uuid.New()
		ids := []uuid.UUID{uuid.New()}
		user := normalUser("usr-1")

		tx.users.On("GetByID", ctx, "usr-1").Return(user, nil)
		tx.installments.On("ListByIDsForUser", ctx, "usr-1", ids).Return([]domain.Installment{
			{ID: ids[0], PlanID: planID, Status: domain.InstallmentStatusPaid},
		}, nil)
		tx.installments.On("MarkPaid", ctx, []uuid.UUID{}, mock.AnythingOfType("time.Time")).Return(int64(0), nil)
		tx.plans.On("CompleteIfFullyPaid", ctx, planID).Return(false, nil)
		tx.installments.On("HasOverdue", ctx, "usr-1").Return(false, nil)
		tx.installments.On("ListOverdueByUser", ctx, "usr-1").Return([]domain.Installment{}, nil)

		summary, _, err := svc.ProcessRepayment(ctx, "usr-1", ids, "")
		require.NoError(t, err)
		assert.False(t, summary.HasOverdue)
	})

	t.Run("Validation", func(t *testing.T) {
		_, svc := newDebtFixture(0)
		var validation *domain.ValidationError

		_, _, err := svc.ProcessRepayment(ctx, "", []uuid.UUID{uuid.New()}, "")
		require.ErrorAs(t, err, &validation)

		_, _, err = svc.ProcessRepayment(ctx, "usr-1", nil, "")
		require.ErrorAs(t, err, &validation)
	})
}

func TestDebtService_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Sweeps In Batches Until Exhausted", func(t *testing.T) {
		tx, svc := newDebtFixture(2)
		batch1 := []repository.SweptInstallment{
			{InstallmentID: uuid.New(), PlanID: uuid.New(), UserID: "usr-1"},
			{InstallmentID: uuid.New(), PlanID: uuid.New(), UserID: "usr-2"},
		}
		batch2 := []repository.SweptInstallment{
			{InstallmentID: uuid.New(), PlanID: uuid.New(), UserID: "usr-1"},
		}
		tx.installments.On("ClaimOverdue", ctx, now, 2).Return(batch1, nil).Once()
		tx.installments.On("ClaimOverdue", ctx, now, 2).Return(batch2, nil).Once()
		tx.users.On("MarkDebtors", ctx, []string{"usr-1", "usr-2"}).Return(int64(2), nil).Once()
		tx.users.On("MarkDebtors", ctx, []string{"usr-1"}).Return(int64(0), nil).Once()

		total, err := svc.Sweep(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		tx.installments.AssertNumberOfCalls(t, "ClaimOverdue", 2)
	})

	t.Run("Nothing To Sweep", func(t *testing.T) {
		tx, svc := newDebtFixture(2)
		tx.installments.On("ClaimOverdue", ctx, now, 2).Return([]repository.SweptInstallment{}, nil)

		total, err := svc.Sweep(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		tx.users.AssertNotCalled(t, "MarkDebtors", mock.Anything, mock.Anything)
	})
}
