package loglogbeta

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
)

// When marshaling a sketch to JSON, we only marshal the precision and the register
// array. The hash function is code, not state: a sketch unmarshaled elsewhere gets
// the default hash, and callers using a custom or seeded hash must install the same
// one before inserting further items.
type jsonableLogLogBeta struct {
	M *registers `json:"M"`
	P uint       `json:"p"`
}

// Convert the sketch into JSON.
func (llb *LogLogBeta) MarshalJSON() ([]byte, error) {
	return json.Marshal(&jsonableLogLogBeta{&llb.regs, llb.p})
}

// Unmarshals a JSON byte-array into a LogLogBeta struct.
func (llb *LogLogBeta) UnmarshalJSON(buf []byte) error {
	j := jsonableLogLogBeta{}
	if err := json.Unmarshal(buf, &j); err != nil {
		return err
	}

	fresh, err := NewWithPrecision(j.P)
	if err != nil {
		return err
	}
	if j.M == nil {
		return fmt.Errorf("marshaled sketch has no register array")
	}
	if len(*j.M) != len(fresh.regs) {
		return fmt.Errorf("marshaled register array is %d bytes, precision %d needs %d",
			len(*j.M), j.P, len(fresh.regs))
	}

	*llb = *fresh
	llb.regs = *j.M
	return nil
}

func (r *registers) MarshalJSON() ([]byte, error) {
	compressed, err := snappyB64(*r)
	if err != nil {
		return nil, err
	}

	// Wrap the base64 in quotes so it's a valid JSON string.
	buf := make([]byte, len(compressed)+2)
	buf[0] = '"'
	copy(buf[1:], compressed)
	buf[len(buf)-1] = '"'

	return buf, nil
}

func (r *registers) UnmarshalJSON(buf []byte) error {
	if len(buf) < 2 {
		return fmt.Errorf("a marshaled register array should be at least two bytes, including quotes")
	}
	buf = buf[1 : len(buf)-1] // Remove the quotes from the JSON string

	uncompressed, err := unsnappyB64(buf)
	if err != nil {
		return err
	}

	*r = uncompressed
	return nil
}

// Compress the input using snappy and encode the result using URL-safe base64.
func snappyB64(in []byte) ([]byte, error) {
	compressed := snappy.Encode(nil, in)
	outBuf := make([]byte, base64.URLEncoding.EncodedLen(len(compressed)))
	base64.URLEncoding.Encode(outBuf, compressed)
	return outBuf, nil
}

// The inverse of snappyB64.
func unsnappyB64(in []byte) ([]byte, error) {
	unBase64ed := make([]byte, base64.URLEncoding.DecodedLen(len(in)))
	n, err := base64.URLEncoding.Decode(unBase64ed, in)
	if err != nil {
		return nil, err
	}

	uncompressed, err := snappy.Decode(nil, unBase64ed[:n])
	if err != nil {
		return nil, err
	}

	// The snappy library returns nil when the output length is zero.
	if uncompressed == nil {
		uncompressed = []byte{}
	}
	return uncompressed, nil
}
