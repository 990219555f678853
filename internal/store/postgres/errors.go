package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/taskgrid/internal/store"
)

// translateError maps integrity constraint violations (SQLSTATE class 23)
// to store.ErrConstraint and passes every other error through unchanged.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return fmt.Errorf("%w: %s (%s)", store.ErrConstraint, pqErr.Constraint, pqErr.Message)
	}
	return err
}
