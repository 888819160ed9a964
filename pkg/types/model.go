package types

import (
	"errors"
	"time"
)

// Model describes one persisted topology model. The slots themselves are
// loaded through a backend.
type Model struct {
	ID        string    `json:"model_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Slots     int       `json:"slots"`
}

// Backend lifecycle and lookup errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
	ErrModelNotFound   = errors.New("model not found")
	ErrModelNameEmpty  = errors.New("model name must not be empty")
)
