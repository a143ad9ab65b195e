package notify

import (
	"time"

	"github.com/google/uuid"
)

// Level is how a notification is presented.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one user-facing message.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Action    string    `json:"action,omitempty"`
	ProductID string    `json:"productId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// New builds a notification stamped with a fresh id and the current time.
func New(level Level, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// Success is shorthand for New(LevelSuccess, message).
func Success(message string) Notification { return New(LevelSuccess, message) }

// Error is shorthand for New(LevelError, message).
func Error(message string) Notification { return New(LevelError, message) }

// Info is shorthand for New(LevelInfo, message).
func Info(message string) Notification { return New(LevelInfo, message) }
