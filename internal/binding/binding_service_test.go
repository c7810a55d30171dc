package binding_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"line-leave/internal/binding"
	bindingerrors "line-leave/internal/binding/errors"
	bindingMock "line-leave/internal/binding/mock"

	"github.com/go-redis/redismock/v9"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type serviceDeps struct {
	service   binding.Service
	repo      *bindingMock.MockRepository
	redismock redismock.ClientMock
}

func setupServiceTest(t *testing.T) *serviceDeps {
	t.Helper()
	ctrl := gomock.NewController(t)

	rdb, redisMock := redismock.NewClientMock()
	repo := bindingMock.NewMockRepository(ctrl)

	return &serviceDeps{
		service:   binding.NewService(repo, rdb),
		repo:      repo,
		redismock: redisMock,
	}
}

func cachedPayload(t *testing.T, b binding.UserBinding) string {
	t.Helper()
	payload, err := json.Marshal(b)
	assert.NoError(t, err)
	return string(payload)
}

func TestBindingService_Resolve(t *testing.T) {
	ctx := context.Background()
	alice := binding.UserBinding{
		UserID:      "U-alice",
		DisplayName: "Alice",
		Role:        binding.RoleSupervisor,
		CreatedAt:   time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC),
	}
	key := binding.GetBindingKey(alice.UserID)

	t.Run("cache miss loads repository and fills cache", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.redismock.ExpectGet(key).RedisNil()
		deps.repo.EXPECT().
			FindByUserID(gomock.Any(), alice.UserID).
			Return(&alice, nil)
		deps.redismock.ExpectSet(key, cachedPayload(t, alice), 10*time.Minute).SetVal("OK")

		got, err := deps.service.Resolve(ctx, alice.UserID)

		assert.NoError(t, err)
		assert.Equal(t, alice, got)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.redismock.ExpectGet(key).SetVal(cachedPayload(t, alice))

		got, err := deps.service.Resolve(ctx, alice.UserID)

		assert.NoError(t, err)
		assert.Equal(t, alice.DisplayName, got.DisplayName)
		assert.Equal(t, binding.RoleSupervisor, got.Role)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("cache failure falls back to repository", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.redismock.ExpectGet(key).SetErr(errors.New("redis down"))
		deps.repo.EXPECT().
			FindByUserID(gomock.Any(), alice.UserID).
			Return(&alice, nil)
		deps.redismock.ExpectSet(key, cachedPayload(t, alice), 10*time.Minute).SetErr(errors.New("redis down"))

		got, err := deps.service.Resolve(ctx, alice.UserID)

		assert.NoError(t, err)
		assert.Equal(t, alice.UserID, got.UserID)
	})

	t.Run("negative not bound", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.redismock.ExpectGet(binding.GetBindingKey("U-nobody")).RedisNil()
		deps.repo.EXPECT().
			FindByUserID(gomock.Any(), "U-nobody").
			Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Resolve(ctx, "U-nobody")

		assert.ErrorIs(t, err, bindingerrors.ErrBindingNotFound)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("negative empty user id", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.Resolve(ctx, "  ")

		assert.ErrorIs(t, err, bindingerrors.ErrInvalidUserID)
	})

	t.Run("without redis", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := bindingMock.NewMockRepository(ctrl)
		svc := binding.NewService(repo, nil)

		repo.EXPECT().
			FindByUserID(gomock.Any(), alice.UserID).
			Return(&alice, nil)

		got, err := svc.Resolve(ctx, alice.UserID)

		assert.NoError(t, err)
		assert.Equal(t, alice, got)
	})
}

func TestBindingService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success defaults to employee", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.repo.EXPECT().
			FindByUserID(gomock.Any(), "U-bob").
			Return(nil, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, b *binding.UserBinding) error {
				assert.Equal(t, "U-bob", b.UserID)
				assert.Equal(t, "Bob Chen", b.DisplayName)
				assert.Equal(t, binding.RoleEmployee, b.Role)
				return nil
			})

		got, err := deps.service.Register(ctx, "U-bob", "  Bob Chen ", "")

		assert.NoError(t, err)
		assert.Equal(t, binding.RoleEmployee, got.Role)
		assert.Equal(t, "Bob Chen", got.DisplayName)
	})

	t.Run("negative already bound", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.repo.EXPECT().
			FindByUserID(gomock.Any(), "U-bob").
			Return(&binding.UserBinding{UserID: "U-bob", DisplayName: "Bob", Role: binding.RoleEmployee}, nil)

		_, err := deps.service.Register(ctx, "U-bob", "Robert", binding.RoleEmployee)

		assert.ErrorIs(t, err, bindingerrors.ErrDuplicateBinding)
	})

	t.Run("negative concurrent register hits unique constraint", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.repo.EXPECT().
			FindByUserID(gomock.Any(), "U-bob").
			Return(nil, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "user_bindings_pkey"})

		_, err := deps.service.Register(ctx, "U-bob", "Bob", binding.RoleEmployee)

		assert.ErrorIs(t, err, bindingerrors.ErrDuplicateBinding)
	})

	t.Run("negative lookup failure", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.repo.EXPECT().
			FindByUserID(gomock.Any(), "U-bob").
			Return(nil, errors.New("db down"))

		_, err := deps.service.Register(ctx, "U-bob", "Bob", binding.RoleEmployee)

		assert.EqualError(t, err, "db down")
	})

	t.Run("negative empty name", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.Register(ctx, "U-bob", "   ", binding.RoleEmployee)

		assert.ErrorIs(t, err, bindingerrors.ErrInvalidDisplayName)
	})

	t.Run("negative unknown role", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.Register(ctx, "U-bob", "Bob", binding.Role("ceo"))

		assert.ErrorIs(t, err, bindingerrors.ErrInvalidRole)
	})
}

func TestBindingService_ListByRole(t *testing.T) {
	ctx := context.Background()

	t.Run("success keeps repository order", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.repo.EXPECT().
			FindByRole(gomock.Any(), binding.RoleHR).
			Return([]binding.UserBinding{
				{UserID: "U-hr1", DisplayName: "Carol", Role: binding.RoleHR},
				{UserID: "U-hr2", DisplayName: "Dave", Role: binding.RoleHR},
			}, nil)

		got, err := deps.service.ListByRole(ctx, binding.RoleHR)

		assert.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "U-hr1", got[0].UserID)
		assert.Equal(t, "U-hr2", got[1].UserID)
	})

	t.Run("negative unknown role", func(t *testing.T) {
		deps := setupServiceTest(t)

		_, err := deps.service.ListByRole(ctx, binding.Role("guest"))

		assert.ErrorIs(t, err, bindingerrors.ErrInvalidRole)
	})
}

func TestBindingService_Seed(t *testing.T) {
	ctx := context.Background()
	deps := setupServiceTest(t)

	deps.repo.EXPECT().
		FindByUserID(gomock.Any(), "U-sup").
		Return(&binding.UserBinding{UserID: "U-sup", DisplayName: "Sue", Role: binding.RoleSupervisor}, nil)
	deps.repo.EXPECT().
		FindByUserID(gomock.Any(), "U-hr").
		Return(nil, gorm.ErrRecordNotFound)
	deps.repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(nil)

	err := deps.service.Seed(ctx, []binding.SeedBinding{
		{UserID: "U-sup", DisplayName: "Sue", Role: binding.RoleSupervisor},
		{UserID: "U-hr", DisplayName: "Hank", Role: binding.RoleHR},
	})

	assert.NoError(t, err)
}

func TestParseRole(t *testing.T) {
	r, ok := binding.ParseRole(" HR ")
	assert.True(t, ok)
	assert.Equal(t, binding.RoleHR, r)

	_, ok = binding.ParseRole("boss")
	assert.False(t, ok)
}
