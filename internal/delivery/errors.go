package delivery

import "errors"

var (
	// ErrSinkWrite is returned when a message cannot be written to the sink.
	// It is fatal: output is the only product of the program.
	ErrSinkWrite = errors.New("delivery: writing to output failed")

	// ErrStreamClosed is returned when the engine closes its inbound stream.
	ErrStreamClosed = errors.New("delivery: inbound stream closed")

	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("delivery: unknown output format")
)
