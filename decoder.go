package rmarshal

import (
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/stewi1014/rmarshal/enc"
	"github.com/stewi1014/rmarshal/types"
	"github.com/stewi1014/rmarshal/value"
)

// NewDecoder returns a new Decoder reading from r. A nil config uses the defaults.
// If r cannot read single bytes it is buffered, and the Decoder may read past the end of a stream.
func NewDecoder(r io.Reader, config *Config) *Decoder {
	config = config.copyAndFill()
	return &Decoder{
		reader:   enc.NewReader(r, config.encConfig()),
		registry: config.Registry,
	}
}

// Decoder reads consecutive marshal streams.
// It is safe for concurrent use.
type Decoder struct {
	mutex    sync.Mutex
	reader   *enc.Reader
	registry *types.Registry
}

// Decode reads the next stream and assigns it to the value ptr points to.
// It returns io.EOF if there are no more streams.
func (d *Decoder) Decode(ptr interface{}) error {
	val := reflect.ValueOf(ptr)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("rmarshal: decoded values must be passed by non-nil pointer, got %T", ptr)
	}

	v, err := d.DecodeValue()
	if err != nil {
		return err
	}
	return d.registry.Assign(v, ptr)
}

// DecodeValue reads the next stream as a value tree.
// It returns io.EOF if there are no more streams.
func (d *Decoder) DecodeValue() (value.Value, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.reader.Decode()
}

// Offset returns the number of bytes consumed from the underlying reader.
func (d *Decoder) Offset() int64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.reader.Offset()
}
