package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/repository"
)

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `user_id, full_name, phone_number, passport_number, date_of_birth, card_number, status, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (user_id, full_name, phone_number, passport_number, date_of_birth, card_number, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, u.UserID, u.FullName, u.PhoneNumber, u.PassportNumber, u.DateOfBirth, u.CardNumber, u.Status, now, now)
	if err != nil {
		return mapUniqueViolation(err)
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, userID string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1 FOR UPDATE`, userID)
}

func (r *userRepository) get(ctx context.Context, query, userID string) (*domain.User, error) {
	u := &domain.User{}
	var dob time.Time
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&u.UserID, &u.FullName, &u.PhoneNumber, &u.PassportNumber, &dob, &u.CardNumber, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "user", ID: userID}
	}
	if err != nil {
		return nil, err
	}
	u.DateOfBirth = dob.Format("2006-01-02")
	return u, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var dob time.Time
		if err := rows.Scan(&u.UserID, &u.FullName, &u.PhoneNumber, &u.PassportNumber, &dob, &u.CardNumber, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.DateOfBirth = dob.Format("2006-01-02")
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) UpdateStatus(ctx context.Context, userID string, from, to domain.UserStatus) (bool, error) {
	query := `UPDATE users SET status = $1, updated_at = $2 WHERE user_id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), userID, from)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *userRepository) MarkDebtors(ctx context.Context, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	query := `UPDATE users SET status = $1, updated_at = $2 WHERE user_id = ANY($3) AND status <> $1`
	res, err := r.db.ExecContext(ctx, query, domain.UserStatusDebtUser, time.Now(), pq.Array(userIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
