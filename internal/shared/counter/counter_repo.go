package counter

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -destination=mock/counter_repo_mock.go -package=mock . Repository
type Repository interface {
	GetNextValue(ctx context.Context, scope string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetNextValue(ctx context.Context, scope string) (int64, error) {
	var nextValue int64

	// Atomic upsert so concurrent submitters never share a value.
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO sequence_counters (scope, last_value, updated_at)
		VALUES (?, 1, now())
		ON CONFLICT (scope) DO UPDATE
		SET last_value = sequence_counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, scope).Scan(&nextValue).Error

	if err != nil {
		return 0, err
	}

	return nextValue, nil
}
