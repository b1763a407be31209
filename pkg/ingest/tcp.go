package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/gwillem/roomba/pkg/sequence"
)

// TCPClient dials a sequence server and reads newline framed sequences.
type TCPClient struct {
	Address     string
	DialTimeout time.Duration
	// MaxLength bounds a single sequence; longer lines are dropped.
	MaxLength int
	Log       *zap.Logger
}

var _ Source = (*TCPClient)(nil)

// NewTCPClient returns a client for address with default limits.
func NewTCPClient(address string, log *zap.Logger) *TCPClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &TCPClient{
		Address:     address,
		DialTimeout: 10 * time.Second,
		MaxLength:   sequence.MaxLength,
		Log:         log,
	}
}

// Run connects and delivers every received line to h. It returns ErrClosed
// when the server hangs up and ctx.Err() when cancelled.
func (c *TCPClient) Run(ctx context.Context, h Handler) error {
	d := net.Dialer{Timeout: c.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.Address)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.Address, err)
	}
	defer conn.Close()
	c.Log.Info("connected to sequence server", zap.String("addr", c.Address))

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	r := bufio.NewReader(conn)
	for {
		line, tooLong, err := readLine(r, c.MaxLength)
		switch {
		case tooLong:
			c.Log.Warn("dropping over-long sequence", zap.Int("max", c.MaxLength))
		case line != "":
			c.Log.Info("received move sequence", zap.String("sequence", line))
			h(ctx, line)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return ErrClosed
			}
			return fmt.Errorf("read sequence: %w", err)
		}
	}
}

// readLine reads up to the next newline. Lines longer than max bytes are
// consumed and reported with tooLong set.
func readLine(r *bufio.Reader, max int) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if max <= 0 || len(buf)+len(chunk) <= max+2 {
			buf = append(buf, chunk...)
		} else {
			tooLong = true
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		line = sequence.Normalize(string(buf))
		if max > 0 && len(line) > max {
			tooLong = true
		}
		if tooLong {
			line = ""
		}
		return line, tooLong, err
	}
}
