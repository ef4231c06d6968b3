package transport

import (
	"context"
	"io"
	"sync"

	"github.com/matzehuels/dsgviz/pkg/errors"
	"github.com/matzehuels/dsgviz/pkg/marker"
)

// Writer prints one JSON envelope per line.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	seq *Sequencer
}

// NewWriter creates a transport writing to w. The caller owns w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, seq: NewSequencer()}
}

// Publish writes the envelope of markers followed by a newline.
func (t *Writer) Publish(ctx context.Context, ch Channel, markers marker.Array) error {
	data, err := t.seq.Next(ch, markers).Encode()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", ch)
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.w.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "write %s", ch)
	}
	return nil
}

// Close does nothing.
func (t *Writer) Close() error { return nil }

var _ Transport = (*Writer)(nil)
