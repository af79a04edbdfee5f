package usage

import (
	"errors"
	"fmt"
)

var (
	// ErrPlanNotFound is returned by stores when the user has no plan record.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrDenied matches every *DeniedError.
	ErrDenied = errors.New("capability denied")
)

// DeniedError carries the reason a capability was refused.
type DeniedError struct {
	Capability Capability
	Reason     Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Capability, e.Reason)
}

func (e *DeniedError) Is(target error) bool { return target == ErrDenied }
