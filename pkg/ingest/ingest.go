// Package ingest receives move sequences from the network.
package ingest

import (
	"context"
	"errors"
)

// Handler receives one raw sequence. It must not block for long; the
// dispatch queue's Submit is the intended handler.
type Handler func(ctx context.Context, raw string)

// Source delivers sequences to a handler until ctx is done or the source
// fails.
type Source interface {
	Run(ctx context.Context, h Handler) error
}

// ErrClosed is returned when the remote end closes the connection.
var ErrClosed = errors.New("server closed the connection")
