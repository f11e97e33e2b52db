package export

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"jasper-go/internal/model"
)

// encMode uses Core Deterministic Encoding so the same dump always produces
// the same bytes. Times are written as RFC 3339 strings to keep nanoseconds.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("export: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("export: CBOR decoder initialization failed: " + err.Error())
	}
}

func writeCBOR(w io.Writer, resources []*model.Resource, opts Options) error {
	if err := encMode.NewEncoder(w).Encode(NewDump(resources, opts.GeneratedAt)); err != nil {
		return fmt.Errorf("encoding cbor dump: %w", err)
	}
	return nil
}

// DecodeCBOR reads a CBOR dump.
func DecodeCBOR(r io.Reader) ([]*model.Resource, error) {
	var d Dump
	if err := decMode.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding cbor dump: %w", err)
	}
	return d.ToResources()
}
