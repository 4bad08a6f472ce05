package store

import (
	"context"

	"github.com/javifm86/weather-bot/internal/domain"
)

// Repo defines storage operations for subscriptions. Only complete records
// are ever persisted; partial signups live purely in memory.
type Repo interface {
	// List returns every persisted subscription. Called once at startup to
	// rehydrate the in-memory store and the trigger registry.
	List(ctx context.Context) ([]domain.Subscription, error)
	Upsert(ctx context.Context, sub *domain.Subscription) error
	Delete(ctx context.Context, chatID int64) error
	Close() error
}
