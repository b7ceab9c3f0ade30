package godpkg

import "sync/atomic"

// Progress is implemented by the host to receive status updates during a
// conversion. Report is invoked on the conversion thread and must be
// re-entrancy-safe with respect to the caller's Cancel (the implementation
// may call Cancel directly from within Report).
type Progress interface {
	Report(fraction float64, status string)
}

// ProgressFunc adapts a plain function to the Progress interface.
type ProgressFunc func(fraction float64, status string)

func (f ProgressFunc) Report(fraction float64, status string) {
	f(fraction, status)
}

// noopProgress discards every report; used when the caller passes a nil
// Progress.
type noopProgress struct{}

func (noopProgress) Report(float64, string) {}

// CancelToken is the single cross-thread contact point between a running
// conversion and its caller: Cancel is safe to call from any goroutine,
// Cancelled is polled by the pipeline at state boundaries and before every
// block read.
type CancelToken struct {
	flag atomic.Bool
}

// NewCancelToken returns a token in the not-cancelled state.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests cooperative cancellation of the in-progress conversion.
func (c *CancelToken) Cancel() {
	c.flag.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (c *CancelToken) Cancelled() bool {
	if c == nil {
		return false
	}
	return c.flag.Load()
}
