package binding

import (
	"errors"
	"strings"

	bindingerrors "line-leave/internal/binding/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return bindingerrors.ErrBindingNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return bindingerrors.ErrDuplicateBinding
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return bindingerrors.ErrDuplicateBinding
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "user_bindings") {
		return bindingerrors.ErrDuplicateBinding
	}

	return err
}
