package resource

import (
	"context"
	"io"
)

// RateLimitedWriter paces writes through a Controller's I/O budget.
type RateLimitedWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

// NewRateLimitedWriter wraps w. With a nil or unlimited controller writes pass
// straight through.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{ctx: ctx, w: w, rc: rc}
}

// Write splits p into burst-sized chunks and waits for tokens before each.
func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	burst := w.rc.IOBurst()
	if burst == 0 {
		return w.w.Write(p)
	}

	written := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > burst {
			chunk = chunk[:burst]
		}

		if err := w.rc.AcquireIO(w.ctx, len(chunk)); err != nil {
			return written, err
		}

		n, err := w.w.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}
		p = p[n:]
	}

	return written, nil
}

// Unwrap returns the underlying writer.
func (w *RateLimitedWriter) Unwrap() io.Writer {
	return w.w
}
