package sums

import (
	"errors"
	"fmt"
)

// ErrNavigationTimeout reports that the bounded wait for the dashboard
// never resolved. The flow stalled, the transport did not break.
var ErrNavigationTimeout = errors.New("timed out waiting for the dashboard to load")

// RejectedError reports that the login flow completed and the portal
// refused the credentials. Callers can correct the credentials and try
// again; any other error out of Authenticate means the flow itself
// broke and retrying blindly is pointless.
type RejectedError struct {
	// text of the portal's login error element
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("login rejected: %s", e.Reason)
}

// ExtractError reports a member table row that could not be converted
// into a Member. The whole extraction aborts on the first such row: a
// partially-wrong roster is worse than no roster.
type ExtractError struct {
	Row int
	Err error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("member table row %d: %s", e.Row, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}
