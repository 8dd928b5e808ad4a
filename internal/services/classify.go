package services

import (
	"context"
	"errors"

	"basket-rules/internal/basket"
	"basket-rules/internal/dataprep"
	apperrors "basket-rules/internal/errors"
	"basket-rules/internal/mining"
	"basket-rules/internal/validation"
)

// Classify maps a pipeline failure onto the API error taxonomy. The message
// carries the underlying error text.
func Classify(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		return apperrors.InputWrap(err, verr.Error()).WithDetails(verr.Fields)
	}

	switch {
	case errors.Is(err, dataprep.ErrOutsideRoot):
		return apperrors.InputWrap(err, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.TimeoutWrap(err, "rule generation timed out")
	case errors.Is(err, context.Canceled):
		return apperrors.InternalWrap(err, "request cancelled")
	}

	var dle *dataprep.DataLoadError
	var ebe *basket.EmptyBasketError
	var ce *mining.ComputationError

	switch {
	case errors.As(err, &dle), errors.As(err, &ebe), errors.Is(err, basket.ErrInvalidQuantity):
		return apperrors.DataWrap(err, err.Error())
	case errors.As(err, &ce):
		return apperrors.ComputationWrap(err, err.Error())
	default:
		return apperrors.InternalWrap(err, "An unexpected error occurred")
	}
}
