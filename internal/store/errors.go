package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/liamwears/reelcatalog/internal/services"
)

const uniqueViolation = "23505"

var (
	_ services.MovieStore  = (*MovieStore)(nil)
	_ services.PersonStore = (*PersonStore)(nil)
	_ services.UserStore   = (*UserStore)(nil)
)

// mapWriteError turns unique violations into services.ErrDuplicate
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", services.ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("failed to write row: %w", err)
}
