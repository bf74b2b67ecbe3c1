package pricing

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("pricing: property pricing profile not found")
	ErrInvalidRange     = errors.New("pricing: check-out must be at least one night after check-in")
	ErrInvalidOccupancy = errors.New("pricing: guest count must be at least 1 and pet count not negative")
	ErrTimeout          = errors.New("pricing: supporting data fetch timed out")
)

// UpstreamError wraps a data source failure that is not a timeout
type UpstreamError struct {
	Op         string
	PropertyID uuid.UUID
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("pricing: %s for property %s: %v", e.Op, e.PropertyID, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err is an UpstreamError
func IsUpstream(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}
