package domain

import (
	"encoding/json"
	"time"
)

// IdempotencyKey stores the response of a completed mutating operation so a
// retry with the same key replays the stored result instead of re-executing.
type IdempotencyKey struct {
	Key          string          `json:"key"`
	ResponseData json.RawMessage `json:"response_data"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

func (k *IdempotencyKey) Expired(now time.Time) bool {
	return k.ExpiresAt.Before(now)
}
