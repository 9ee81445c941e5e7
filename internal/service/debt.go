package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/logger"
	"bnpl-debt-service/internal/repository"
)

const defaultSweepBatchSize = 500

type debtService struct {
	txm            repository.TxManager
	users          repository.UserRepository
	installments   repository.InstallmentRepository
	guard          *IdempotencyGuard
	sweepBatchSize int
}

func NewDebtService(
	txm repository.TxManager,
	users repository.UserRepository,
	installments repository.InstallmentRepository,
	guard *IdempotencyGuard,
	sweepBatchSize int,
) DebtService {
	if sweepBatchSize <= 0 {
		sweepBatchSize = defaultSweepBatchSize
	}
	return &debtService{
		txm:            txm,
		users:          users,
		installments:   installments,
		guard:          guard,
		sweepBatchSize: sweepBatchSize,
	}
}

func (s *debtService) CheckDebt(ctx context.Context, userID string) (*domain.DebtSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	overdue, err := s.installments.ListOverdueByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildSummary(user, overdue), nil
}

func (s *debtService) ProcessRepayment(ctx context.Context, userID string, installmentIDs []uuid.UUID, idempotencyKey string) (*domain.DebtSummary, bool, error) {
	if userID == "" {
		return nil, false, &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if len(installmentIDs) == 0 {
		return nil, false, &domain.ValidationError{Field: "installment_ids", Reason: "must not be empty"}
	}
	installmentIDs = dedupe(installmentIDs)

	if idempotencyKey == "" {
		var summary *domain.DebtSummary
		err := s.txm.WithinTx(ctx, func(tx repository.Tx) error {
			var err error
			summary, err = s.repayTx(ctx, tx, userID, installmentIDs)
			return err
		})
		if err != nil {
			return nil, false, err
		}
		return summary, true, nil
	}

	response, replayed, err := s.guard.Execute(ctx, "repayment:"+idempotencyKey, func(ctx context.Context, tx repository.Tx) (json.RawMessage, error) {
		summary, err := s.repayTx(ctx, tx, userID, installmentIDs)
		if err != nil {
			return nil, err
		}
		return json.Marshal(summary)
	})
	if err != nil {
		return nil, false, err
	}

	summary := &domain.DebtSummary{}
	if err := json.Unmarshal(response, summary); err != nil {
		return nil, false, err
	}
	return summary, !replayed, nil
}

func (s *debtService) repayTx(ctx context.Context, tx repository.Tx, userID string, installmentIDs []uuid.UUID) (*domain.DebtSummary, error) {
	user, err := tx.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned, err := tx.Installments().ListByIDsForUser(ctx, userID, installmentIDs)
	if err != nil {
		return nil, err
	}
	if len(owned) != len(installmentIDs) {
		return nil, &domain.ValidationError{Field: "installment_ids", Reason: "contains installments that do not exist or belong to another user"}
	}

	// Already-PAID installments in the request are skipped, not errors, so a
	// retried repayment stays a no-op.
	toPay := make([]uuid.UUID, 0, len(owned))
	planIDs := make(map[uuid.UUID]struct{})
	for _, inst := range owned {
		planIDs[inst.PlanID] = struct{}{}
		if inst.Status != domain.InstallmentStatusPaid {
			toPay = append(toPay, inst.ID)
		}
	}

	paid, err := tx.Installments().MarkPaid(ctx, toPay, time.Now())
	if err != nil {
		return nil, err
	}

	for planID := range planIDs {
		completed, err := tx.Plans().CompleteIfFullyPaid(ctx, planID)
		if err != nil {
			return nil, err
		}
		if completed {
			logger.Info("Plan completed", "plan_id", planID, "user_id", userID)
		}
	}

	hasOverdue, err := tx.Installments().HasOverdue(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !hasOverdue && user.Status == domain.UserStatusDebtUser {
		if _, err := tx.Users().UpdateStatus(ctx, userID, domain.UserStatusDebtUser, domain.UserStatusNormal); err != nil {
			return nil, err
		}
		user.Status = domain.UserStatusNormal
		logger.Info("User status changed back to NORMAL", "user_id", userID)
	}

	overdue, err := tx.Installments().ListOverdueByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	logger.Info("Processed repayment", "user_id", userID, "installments_paid", paid)
	return buildSummary(user, overdue), nil
}

// Sweep claims overdue installments in bounded batches so a long scan can be
// interrupted and resumed by the next run without re-processing rows.
func (s *debtService) Sweep(ctx context.Context, now time.Time) (int, error) {
	total := 0
	for {
		var swept []repository.SweptInstallment
		err := s.txm.WithinTx(ctx, func(tx repository.Tx) error {
			var err error
			swept, err = tx.Installments().ClaimOverdue(ctx, now, s.sweepBatchSize)
			if err != nil {
				return err
			}
			if len(swept) == 0 {
				return nil
			}
			debtors, err := tx.Users().MarkDebtors(ctx, distinctUsers(swept))
			if err != nil {
				return err
			}
			if debtors > 0 {
				logger.Info("Users transitioned to DEBT_USER", "count", debtors)
			}
			return nil
		})
		if err != nil {
			return total, err
		}
		total += len(swept)
		if len(swept) < s.sweepBatchSize {
			return total, nil
		}
	}
}

func buildSummary(user *domain.User, overdue []domain.Installment) *domain.DebtSummary {
	total := decimal.Zero
	for _, inst := range overdue {
		total = total.Add(inst.AmountDue)
	}
	if overdue == nil {
		overdue = []domain.Installment{}
	}
	return &domain.DebtSummary{
		UserID:              user.UserID,
		UserStatus:          user.Status,
		HasOverdue:          len(overdue) > 0,
		TotalDebt:           total,
		OverdueInstallments: overdue,
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func distinctUsers(swept []repository.SweptInstallment) []string {
	seen := make(map[string]struct{}, len(swept))
	out := make([]string, 0, len(swept))
	for _, s := range swept {
		if _, ok := seen[s.UserID]; ok {
			continue
		}
		seen[s.UserID] = struct{}{}
		out = append(out, s.UserID)
	}
	return out
}
