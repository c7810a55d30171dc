package binding

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=binding_repo.go -destination=mock/binding_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, b *UserBinding) error
	FindByUserID(ctx context.Context, userID string) (*UserBinding, error)
	FindByRole(ctx context.Context, role Role) ([]UserBinding, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, b *UserBinding) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *repository) FindByUserID(ctx context.Context, userID string) (*UserBinding, error) {
	var b UserBinding
	err := r.db.WithContext(ctx).First(&b, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) FindByRole(ctx context.Context, role Role) ([]UserBinding, error) {
	var bindings []UserBinding
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at ASC, user_id ASC").
		Find(&bindings).Error
	return bindings, err
}
