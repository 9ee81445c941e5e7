package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bnpl-debt-service/internal/domain"
)

func TestUser_Masked(t *testing.T) {
	u := &domain.User{
		UserID:         "usr-1",
		FullName:       "John Doe",
		PhoneNumber:    "998901234567",
		PassportNumber: "AA1234567",
		DateOfBirth:    "1990-05-20",
		CardNumber:     "4111111111111111",
		Status:         domain.UserStatusNormal,
	}

	masked := u.Masked()
	assert.Equal(t, "usr-1", masked.UserID)
	assert.Equal(t, "John Doe", masked.FullName)
	assert.Equal(t, "+998****4567", masked.PhoneNumber)
	assert.Equal(t, "AA*******", masked.PassportNumber)
	assert.Equal(t, "4111 **** **** 1111", masked.CardNumber)
	assert.Equal(t, "1990-05-20", masked.DateOfBirth)

	t.Run("Short Values Fully Masked", func(t *testing.T) {
		short := &domain.User{PhoneNumber: "1234567", CardNumber: "1234"}
		masked := short.Masked()
		assert.Equal(t, "****", masked.PhoneNumber)
		assert.Equal(t, "**** **** **** ****", masked.CardNumber)
	})
}
