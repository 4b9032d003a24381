package posefeed

import (
	"io"
)

// Porter is the minimal interface needed for the estimator link. A serial
// port satisfies it, as do the replay port and test fakes.
type Porter interface {
	io.ReadWriter
	io.Closer
}
