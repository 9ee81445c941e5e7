package service

import (
	"context"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/repository"
)

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	return s.users.GetByID(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}
