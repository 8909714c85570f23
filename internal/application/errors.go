package application

import (
	"net/http"
	"sync"

	"github.com/wms-platform/fulfillment-simulator/internal/domain"
	"github.com/wms-platform/fulfillment-simulator/pkg/errors"
)

var registerOnce sync.Once

// RegisterDomainErrors teaches errors.MapDomainError the pipeline's
// refusals. It is safe to call more than once.
func RegisterDomainErrors() {
	registerOnce.Do(func() {
		// a worker in the wrong state for the action; station mismatches also
		// wrap ErrUnknownWorker so they are registered first
		for _, target := range []error{
			domain.ErrWorkerBusy,
			domain.ErrNoJob,
			domain.ErrMisscanned,
			domain.ErrInvalidScan,
			domain.ErrAlreadyVerified,
			domain.ErrNotVerified,
			domain.ErrJobSizeMismatch,
			domain.ErrStationMismatch,
		} {
			errors.RegisterDomainError(target, errors.ErrConflict)
		}

		errors.RegisterDomainError(domain.ErrUnknownWorker, func(msg string) *errors.AppError {
			return errors.NewAppError(errors.CodeNotFound, msg, http.StatusNotFound)
		})

		for _, target := range []error{
			domain.ErrOutOfStock,
			domain.ErrNoPickRequest,
			domain.ErrNothingDroppedOff,
			domain.ErrNotReady,
			domain.ErrNothingToLoad,
		} {
			errors.RegisterDomainError(target, errors.ErrUnavailable)
		}

		for _, target := range []error{
			domain.ErrMalformedEvent,
			domain.ErrInvalidOrder,
			domain.ErrUnknownStation,
			domain.ErrUnsupportedAction,
		} {
			errors.RegisterDomainError(target, errors.ErrValidation)
		}

		for _, target := range []error{
			domain.ErrUnknownSKU,
			domain.ErrUnknownLocation,
			domain.ErrUnknownOrder,
			domain.ErrSKUNotStocked,
			domain.ErrInvalidStockRow,
			domain.ErrInvalidPickRequest,
		} {
			errors.RegisterDomainError(target, errors.ErrUnprocessable)
		}
	})
}

// Outcome names how the pipeline answered one event
type Outcome string

const (
	OutcomeApplied     Outcome = "applied"
	OutcomeRefused     Outcome = "refused"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeMalformed   Outcome = "malformed"
)

// Classify maps the error returned for an event to its outcome
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeApplied
	case domain.IsUnavailable(err):
		return OutcomeUnavailable
	default:
		return OutcomeRefused
	}
}
