package domain

import (
	"fmt"
	"time"
)

type UserStatus string

const (
	UserStatusNormal   UserStatus = "NORMAL"
	UserStatusDebtUser UserStatus = "DEBT_USER"
)

type User struct {
	UserID         string     `json:"user_id"`
	FullName       string     `json:"full_name"`
	PhoneNumber    string     `json:"phone_number"`
	PassportNumber string     `json:"passport_number"`
	DateOfBirth    string     `json:"date_of_birth"` // yyyy-mm-dd
	CardNumber     string     `json:"card_number"`
	Status         UserStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// MaskedUser is the only user projection the API ever returns.
type MaskedUser struct {
	UserID         string     `json:"user_id"`
	FullName       string     `json:"full_name"`
	PhoneNumber    string     `json:"phone_number"`
	PassportNumber string     `json:"passport_number"`
	DateOfBirth    string     `json:"date_of_birth"`
	CardNumber     string     `json:"card_number"`
	Status         UserStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Masked returns a display-safe projection of the user.
func (u *User) Masked() MaskedUser {
	return MaskedUser{
		UserID:         u.UserID,
		FullName:       u.FullName,
		PhoneNumber:    maskPhone(u.PhoneNumber),
		PassportNumber: "AA*******",
		DateOfBirth:    u.DateOfBirth,
		CardNumber:     maskCard(u.CardNumber),
		Status:         u.Status,
		CreatedAt:      u.CreatedAt,
	}
}

func maskPhone(phone string) string {
	if len(phone) <= 7 {
		return "****"
	}
	return fmt.Sprintf("+%s****%s", phone[:3], phone[len(phone)-4:])
}

func maskCard(card string) string {
	if len(card) < 8 {
		return "**** **** **** ****"
	}
	return fmt.Sprintf("%s **** **** %s", card[:4], card[len(card)-4:])
}
