package pkg

import (
	"database/sql"
	"errors"
	"fmt"
)

// WithTransaction commits tx when fn succeeds and rolls it back otherwise.
func WithTransaction(tx *sql.Tx, fn func() error) error {
	if err := fn(); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
