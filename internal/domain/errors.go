package domain

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrUnknownSKU         = errors.New("sku not in stock room")
	ErrOutOfStock         = errors.New("sku out of stock")
	ErrUnknownLocation    = errors.New("no product stocked at location")
	ErrInvalidStockRow    = errors.New("invalid stock row")
	ErrUnknownOrder       = errors.New("order not in translation table")
	ErrSKUNotStocked      = errors.New("order skus not stocked in warehouse")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrInvalidPickRequest = errors.New("invalid pick request")
	ErrNoPickRequest      = errors.New("no pick request ready")
	ErrNothingDroppedOff  = errors.New("no loads ready for sequencing")
	ErrNotReady           = errors.New("next load not ready for sequencing")
	ErrNothingToLoad      = errors.New("no loads ready for loading")
	ErrWorkerBusy         = errors.New("worker is busy")
	ErrNoJob              = errors.New("worker has no assigned job")
	ErrMisscanned         = errors.New("earlier misscan must be rescanned or discarded")
	ErrInvalidScan        = errors.New("scanned sku does not match expected sku")
	ErrAlreadyVerified    = errors.New("verification already complete")
	ErrNotVerified        = errors.New("job has not been verified")
	ErrJobSizeMismatch    = errors.New("pick request size does not match worker capacity")
	ErrUnknownStation     = errors.New("unknown station kind")
	ErrUnknownWorker      = errors.New("unknown worker")
	ErrStationMismatch    = errors.New("worker is registered at a different station")
	ErrUnsupportedAction  = errors.New("action not supported by station")
	ErrMalformedEvent     = errors.New("malformed event")
)

// MisscanError reports a scan that did not match the expected sku at the
// worker's current position.
type MisscanError struct {
	Position int
	Expected string
	Got      string
}

func (e *MisscanError) Error() string {
	return fmt.Sprintf("invalid sku %s at position %d, should be %s", e.Got, e.Position, e.Expected)
}

func (e *MisscanError) Unwrap() error { return ErrInvalidScan }

// IsUnavailable reports whether err is a resource exhaustion outcome (empty
// queue, zero stock) rather than an invalid input or sequencing error.
func IsUnavailable(err error) bool {
	for _, target := range []error{ErrOutOfStock, ErrNoPickRequest, ErrNothingDroppedOff, ErrNotReady, ErrNothingToLoad} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsSequencingError reports whether err refuses an action because of the
// worker's current state.
func IsSequencingError(err error) bool {
	for _, target := range []error{ErrWorkerBusy, ErrNoJob, ErrMisscanned, ErrAlreadyVerified, ErrNotVerified} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
