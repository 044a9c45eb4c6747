package resource

import (
	"context"
	"io"
)

// PacedWriter wraps an io.Writer so that writes draw from the controller's
// IO budget. Large writes are split at the limiter burst.
type PacedWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

// NewPacedWriter returns w unchanged in effect if rc does not limit IO.
func NewPacedWriter(ctx context.Context, w io.Writer, rc *Controller) *PacedWriter {
	return &PacedWriter{ctx: ctx, w: w, rc: rc}
}

func (w *PacedWriter) Write(p []byte) (int, error) {
	burst := w.rc.IOBurst()
	if burst <= 0 {
		return w.w.Write(p)
	}

	written := 0
	for len(p) > 0 {
		c := min(burst, len(p))
		if err := w.rc.AcquireIO(w.ctx, c); err != nil {
			return written, err
		}
		n, err := w.w.Write(p[:c])
		written += n
		if err != nil {
			return written, err
		}
		p = p[c:]
	}
	return written, nil
}

// PacedReader wraps an io.Reader so that reads draw from the controller's
// IO budget.
type PacedReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// NewPacedReader returns a reader paced by rc.
func NewPacedReader(ctx context.Context, r io.Reader, rc *Controller) *PacedReader {
	return &PacedReader{ctx: ctx, r: r, rc: rc}
}

func (r *PacedReader) Read(p []byte) (int, error) {
	// Budget is taken up front; a short read forfeits the rest.
	if burst := r.rc.IOBurst(); burst > 0 {
		if len(p) > burst {
			p = p[:burst]
		}
		if err := r.rc.AcquireIO(r.ctx, len(p)); err != nil {
			return 0, err
		}
	}
	return r.r.Read(p)
}
