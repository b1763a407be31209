package metrics

import (
	"io"

	"github.com/gwillem/roomba/pkg/oi"
)

// countingWriter counts every Write as one packet, labelled by its opcode.
type countingWriter struct {
	w io.Writer
}

// Writer instruments w. The robot issues exactly one Write per packet.
func Writer(w io.Writer) io.Writer {
	if c, ok := w.(io.WriteCloser); ok {
		return &countingWriteCloser{countingWriter{w: w}, c}
	}
	return &countingWriter{w: w}
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if err != nil {
		WriteErrorsTotal.Inc()
		return n, err
	}
	if len(p) > 0 {
		PacketsTotal.WithLabelValues(oi.Opcode(p[0]).String()).Inc()
	}
	return n, nil
}

type countingWriteCloser struct {
	countingWriter
	closer io.Closer
}

func (c *countingWriteCloser) Close() error {
	return c.closer.Close()
}
