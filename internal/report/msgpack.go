package report

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"logcompare/internal/compare"
)

// MsgPack writes res as one MessagePack document. Keys are the same as in the
// JSON report.
func MsgPack(w io.Writer, res compare.Result, opts JSONOptions) error {
	payload, err := BuildJSON(res, opts)
	if err != nil {
		return err
	}
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(payload)
}

// DecodeMsgPack reads a report written by MsgPack.
func DecodeMsgPack(r io.Reader) (ResultJSON, error) {
	var out ResultJSON
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&out); err != nil {
		return ResultJSON{}, err
	}
	return out, nil
}
