package binding

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	bindingerrors "line-leave/internal/binding/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	BindingKeyPrefix = "bindings:user:"
	bindingCacheTTL  = 10 * time.Minute
)

func GetBindingKey(userID string) string {
	return BindingKeyPrefix + userID
}

//go:generate mockgen -source=binding_service.go -destination=mock/binding_service_mock.go -package=mock
type Service interface {
	Resolve(ctx context.Context, userID string) (UserBinding, error)
	Register(ctx context.Context, userID, displayName string, role Role) (UserBinding, error)
	ListByRole(ctx context.Context, role Role) ([]UserBinding, error)
	Seed(ctx context.Context, seeds []SeedBinding) error
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

// NewService builds the registry. rdb may be nil, in which case every
// Resolve goes to the repository.
func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("binding.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("binding.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Resolve(ctx context.Context, userID string) (UserBinding, error) {
	if strings.TrimSpace(userID) == "" {
		return UserBinding{}, bindingerrors.ErrInvalidUserID
	}

	if b, ok := s.readCache(ctx, userID); ok {
		return b, nil
	}

	v, err, _ := s.sf.Do(userID, func() (any, error) {
		b, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return UserBinding{}, mapRepositoryError(err)
		}
		return *b, nil
	})
	if err != nil {
		if !errors.Is(err, bindingerrors.ErrBindingNotFound) {
			s.logger.Error("resolve binding failed", zap.String("user_id", userID), zap.Error(err))
		}
		return UserBinding{}, err
	}

	b := v.(UserBinding)
	s.writeCache(ctx, b)
	return b, nil
}

func (s *service) Register(ctx context.Context, userID, displayName string, role Role) (UserBinding, error) {
	userID = strings.TrimSpace(userID)
	displayName = strings.TrimSpace(displayName)
	if userID == "" {
		return UserBinding{}, bindingerrors.ErrInvalidUserID
	}
	if displayName == "" {
		return UserBinding{}, bindingerrors.ErrInvalidDisplayName
	}
	if role == "" {
		role = RoleEmployee
	}
	if !role.Valid() {
		return UserBinding{}, bindingerrors.ErrInvalidRole
	}

	existing, err := s.repo.FindByUserID(ctx, userID)
	switch err = mapRepositoryError(err); {
	case err == nil && existing != nil:
		return UserBinding{}, bindingerrors.ErrDuplicateBinding
	case err != nil && !errors.Is(err, bindingerrors.ErrBindingNotFound):
		s.logger.Error("register binding lookup failed", zap.String("user_id", userID), zap.Error(err))
		return UserBinding{}, err
	}

	b := &UserBinding{
		UserID:      userID,
		DisplayName: displayName,
		Role:        role,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		mapped := mapRepositoryError(err)
		if errors.Is(mapped, bindingerrors.ErrDuplicateBinding) {
			s.logger.Warn("register binding raced with another register", zap.String("user_id", userID))
		} else {
			s.logger.Error("register binding persist failed", zap.String("user_id", userID), zap.Error(err))
		}
		return UserBinding{}, mapped
	}

	s.logger.Info("register binding success",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
	)
	return *b, nil
}

func (s *service) ListByRole(ctx context.Context, role Role) ([]UserBinding, error) {
	if !role.Valid() {
		return nil, bindingerrors.ErrInvalidRole
	}
	bindings, err := s.repo.FindByRole(ctx, role)
	if err != nil {
		s.logger.Error("list bindings by role failed", zap.String("role", string(role)), zap.Error(err))
		return nil, err
	}
	return bindings, nil
}

func (s *service) Seed(ctx context.Context, seeds []SeedBinding) error {
	for _, seed := range seeds {
		_, err := s.Register(ctx, seed.UserID, seed.DisplayName, seed.Role)
		if errors.Is(err, bindingerrors.ErrDuplicateBinding) {
			s.logger.Debug("seed binding already present", zap.String("user_id", seed.UserID))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *service) readCache(ctx context.Context, userID string) (UserBinding, bool) {
	if s.rdb == nil {
		return UserBinding{}, false
	}
	val, err := s.rdb.Get(ctx, GetBindingKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("binding cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return UserBinding{}, false
	}
	var b UserBinding
	if err := json.Unmarshal([]byte(val), &b); err != nil {
		s.logger.Warn("binding cache decode failed", zap.String("user_id", userID), zap.Error(err))
		return UserBinding{}, false
	}
	return b, true
}

// Bindings are immutable, so a cached positive lookup never goes stale.
func (s *service) writeCache(ctx context.Context, b UserBinding) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(b)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, GetBindingKey(b.UserID), string(payload), bindingCacheTTL).Err(); err != nil {
		s.logger.Warn("binding cache write failed", zap.String("user_id", b.UserID), zap.Error(err))
	}
}
