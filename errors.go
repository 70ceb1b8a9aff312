package mpv

import "fmt"

// Native status codes used by this package. The full set is defined by the
// engine; only the values the binding itself produces or inspects are named.
const (
	statusSuccess = 0
	statusNoMem   = -2
	statusGeneric = -20
)

// InitError reports a failed engine creation or initialization. It carries
// the native status code; no handle is registered and no resources are held
// when Create returns one.
type InitError struct {
	Op      string // Failing engine operation ("create", "initialize")
	Code    int    // Native status code
	Message string // Engine's message for Code, if available
}

func (e *InitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mpv: %s: %s (%d)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("mpv: %s failed (%d)", e.Op, e.Code)
}
