package policy

import (
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeMsgpack writes the lift samples as a plain float array.
func (p Policy) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(p.lift)
}

// DecodeMsgpack rejects arrays whose length is not 2^L + 1.
func (p *Policy) DecodeMsgpack(dec *msgpack.Decoder) error {
	var lift []float64
	if err := dec.Decode(&lift); err != nil {
		return err
	}
	np, err := New(lift)
	if err != nil {
		return err
	}
	*p = np
	return nil
}
