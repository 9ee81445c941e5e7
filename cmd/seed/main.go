package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bnpl-debt-service/internal/config"
	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/logger"
	"bnpl-debt-service/internal/repository/postgres"
)

// Seeds the database with demo users and plans: two normal users with an
// active plan whose first installment is already overdue, and one debt user
// buried in overdue installments.
func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Seeding mock data...")

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := postgres.NewStore(db)
	ctx := context.Background()
	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	users := []domain.User{
		{
			UserID:         "mock-usr-001",
			FullName:       "John Doe",
			PhoneNumber:    "+998901234567",
			PassportNumber: "AA1234567",
			DateOfBirth:    "1990-05-20",
			CardNumber:     "4111111111111111",
			Status:         domain.UserStatusNormal,
		},
		{
			UserID:         "mock-usr-002",
			FullName:       "Jane Smith",
			PhoneNumber:    "+998901234568",
			PassportNumber: "AA1234568",
			DateOfBirth:    "1985-08-15",
			CardNumber:     "5555555555554444",
			Status:         domain.UserStatusNormal,
		},
		{
			UserID:         "mock-usr-003",
			FullName:       "Bob Johnson",
			PhoneNumber:    "+998901234569",
			PassportNumber: "AA1234569",
			DateOfBirth:    "1992-03-10",
			CardNumber:     "378282246310005",
			Status:         domain.UserStatusDebtUser,
		},
	}

	for i := range users {
		u := &users[i]
		u.CreatedAt = now
		u.UpdatedAt = now
		if _, err := store.UserRepository.GetByID(ctx, u.UserID); err == nil {
			logger.Info("User already exists", "user_id", u.UserID)
			continue
		}
		if err := store.UserRepository.Create(ctx, u); err != nil {
			log.Fatalf("Failed to create user %s: %v", u.UserID, err)
		}
		logger.Info("Created user", "user_id", u.UserID, "name", u.FullName)
	}

	// Active plan per normal user, first installment overdue for demos
	for _, u := range users {
		if u.Status != domain.UserStatusNormal {
			continue
		}
		plan := &domain.Plan{
			ID:          uuid.New(),
			UserID:      u.UserID,
			TotalAmount: decimal.RequireFromString("1500.00"),
			Status:      domain.PlanStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.PlanRepository.Create(ctx, plan); err != nil {
			log.Fatalf("Failed to create plan for %s: %v", u.UserID, err)
		}

		amount := decimal.RequireFromString("500.00")
		installments := make([]domain.Installment, 0, 3)
		for i := 0; i < 3; i++ {
			dueDate := today.AddDate(0, 0, 30*(i+1))
			status := domain.InstallmentStatusUpcoming
			if i == 0 {
				dueDate = today.AddDate(0, 0, -5)
				status = domain.InstallmentStatusOverdue
			}
			installments = append(installments, domain.Installment{
				ID:        uuid.New(),
				PlanID:    plan.ID,
				AmountDue: amount,
				DueDate:   dueDate,
				Status:    status,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		if err := store.InstallmentRepository.CreateBatch(ctx, installments); err != nil {
			log.Fatalf("Failed to create installments for %s: %v", u.UserID, err)
		}
		logger.Info("Created plan", "user_id", u.UserID, "plan_id", plan.ID)
	}

	// Debt user gets a plan that is entirely overdue
	for _, u := range users {
		if u.Status != domain.UserStatusDebtUser {
			continue
		}
		plan := &domain.Plan{
			ID:          uuid.New(),
			UserID:      u.UserID,
			TotalAmount: decimal.RequireFromString("2000.00"),
			Status:      domain.PlanStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.PlanRepository.Create(ctx, plan); err != nil {
			log.Fatalf("Failed to create plan for %s: %v", u.UserID, err)
		}

		amount := decimal.RequireFromString("500.00")
		installments := make([]domain.Installment, 0, 4)
		for i := 0; i < 4; i++ {
			installments = append(installments, domain.Installment{
				ID:        uuid.New(),
				PlanID:    plan.ID,
				AmountDue: amount,
				DueDate:   today.AddDate(0, 0, -15*(i+1)),
				Status:    domain.InstallmentStatusOverdue,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		if err := store.InstallmentRepository.CreateBatch(ctx, installments); err != nil {
			log.Fatalf("Failed to create installments for %s: %v", u.UserID, err)
		}
		logger.Info("Created overdue plan", "user_id", u.UserID, "plan_id", plan.ID)
	}

	counts, err := store.Counts(ctx)
	if err == nil {
		logger.Info("Seed complete", "users", counts["users"], "plans", counts["plans"], "refunds", counts["refunds"])
	} else {
		logger.Info("Seed complete")
	}
}
