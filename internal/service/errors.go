package service

import (
	"errors"

	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
)

// storeError passes domain errors from a repository through unchanged and
// reports anything else as a persistence failure of op.
func storeError(op string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Persistence(op, err)
}
