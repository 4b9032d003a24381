package posefeed

import (
	"fmt"

	"go.bug.st/serial"
)

// NewSerialMux opens the estimator's serial port at path.
func NewSerialMux(path string, opts PortOptions) (*Mux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return NewMux[serial.Port](port), nil
}
