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
	"bnpl-debt-service/internal/utils"
)

const (
	defaultInstallmentCount = 3
	minInstallmentCount     = 3
	maxInstallmentCount     = 12
	installmentCycleDays    = 30
)

type planService struct {
	txm          repository.TxManager
	plans        repository.PlanRepository
	installments repository.InstallmentRepository
	guard        *IdempotencyGuard
}

func NewPlanService(
	txm repository.TxManager,
	plans repository.PlanRepository,
	installments repository.InstallmentRepository,
	guard *IdempotencyGuard,
) PlanService {
	return &planService{
		txm:          txm,
		plans:        plans,
		installments: installments,
		guard:        guard,
	}
}

func (s *planService) CreatePlan(ctx context.Context, userID string, totalAmount decimal.Decimal, installmentCount int, idempotencyKey string) (*domain.Plan, bool, error) {
	if userID == "" {
		return nil, false, &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if totalAmount.Sign() <= 0 {
		return nil, false, &domain.ValidationError{Field: "total_amount", Reason: "must be positive"}
	}
	if installmentCount == 0 {
		installmentCount = defaultInstallmentCount
	}
	if installmentCount < minInstallmentCount || installmentCount > maxInstallmentCount {
		return nil, false, &domain.ValidationError{Field: "installment_count", Reason: "must be between 3 and 12"}
	}

	if idempotencyKey == "" {
		var plan *domain.Plan
		err := s.txm.WithinTx(ctx, func(tx repository.Tx) error {
			var err error
			plan, err = s.createPlanTx(ctx, tx, userID, totalAmount, installmentCount)
			return err
		})
		if err != nil {
			return nil, false, err
		}
		return plan, true, nil
	}

	response, replayed, err := s.guard.Execute(ctx, "plan:"+idempotencyKey, func(ctx context.Context, tx repository.Tx) (json.RawMessage, error) {
		plan, err := s.createPlanTx(ctx, tx, userID, totalAmount, installmentCount)
		if err != nil {
			return nil, err
		}
		return json.Marshal(plan)
	})
	if err != nil {
		return nil, false, err
	}

	plan := &domain.Plan{}
	if err := json.Unmarshal(response, plan); err != nil {
		return nil, false, err
	}
	return plan, !replayed, nil
}

// createPlanTx holds the user row lock for the whole transaction so a
// concurrent sweep cannot flip the user to DEBT_USER between the eligibility
// check and the insert.
func (s *planService) createPlanTx(ctx context.Context, tx repository.Tx, userID string, totalAmount decimal.Decimal, installmentCount int) (*domain.Plan, error) {
	user, err := tx.Users().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == domain.UserStatusDebtUser {
		logger.Warn("Plan creation rejected for debt user", "user_id", userID)
		return nil, &domain.ForbiddenError{Reason: "users with DEBT_USER status cannot create new BNPL plans"}
	}

	shares, err := utils.SplitAmount(totalAmount, installmentCount)
	if err != nil {
		return nil, &domain.ValidationError{Field: "total_amount", Reason: err.Error()}
	}

	plan := &domain.Plan{
		ID:          uuid.New(),
		UserID:      userID,
		TotalAmount: totalAmount,
		Status:      domain.PlanStatusActive,
	}
	if err := tx.Plans().Create(ctx, plan); err != nil {
		return nil, err
	}

	now := time.Now()
	installments := make([]domain.Installment, installmentCount)
	for i, share := range shares {
		installments[i] = domain.Installment{
			ID:        uuid.New(),
			PlanID:    plan.ID,
			AmountDue: share,
			DueDate:   now.AddDate(0, 0, installmentCycleDays*(i+1)),
			Status:    domain.InstallmentStatusUpcoming,
		}
	}
	if err := tx.Installments().CreateBatch(ctx, installments); err != nil {
		return nil, err
	}
	plan.Installments = installments

	logger.Info("Created BNPL plan", "plan_id", plan.ID, "user_id", userID, "total_amount", totalAmount, "installments", installmentCount)
	return plan, nil
}

func (s *planService) GetPlan(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	installments, err := s.installments.ListByPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	plan.Installments = installments
	return plan, nil
}

func (s *planService) ListPlans(ctx context.Context, userID string) ([]domain.Plan, error) {
	plans, err := s.plans.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		installments, err := s.installments.ListByPlan(ctx, plans[i].ID)
		if err != nil {
			return nil, err
		}
		plans[i].Installments = installments
	}
	return plans, nil
}
