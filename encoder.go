package rmarshal

import (
	"io"
	"sync"

	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/encio"
)

// NewEncoder returns a new Encoder writing to w. A nil config uses the defaults.
func NewEncoder(w io.Writer, config *Config) *Encoder {
	return &Encoder{
		w:      w,
		writer: enc.NewWriter(config.copyAndFill().encConfig()),
	}
}

// Encoder writes marshal streams, one per call to Encode.
// It is safe for concurrent use; each stream is written with a single call to the underlying writer.
type Encoder struct {
	w      io.Writer
	mutex  sync.Mutex
	writer *enc.Writer
}

// Encode writes the stream for v.
// Nothing is written if v cannot be encoded.
func (e *Encoder) Encode(v interface{}) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	b, err := e.writer.Encode(v)
	if err != nil {
		return err
	}
	return encio.Write(b, e.w)
}
