package index

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Serialized indexes are gob-encoded and zstd-compressed. Round-tripping
// reproduces identical bucket contents and hash-function parameters.

func saveIndex[T any](index *T, w io.Writer) error {
	var buffer bytes.Buffer
	enc := gob.NewEncoder(&buffer)
	if err := enc.Encode(index); err != nil {
		return err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := zw.Write(buffer.Bytes()); err != nil {
		zw.Close()
		return err
	}

	return zw.Close()
}

func loadIndex[T any](r io.Reader) (ret T, _ error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return ret, err
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	if err := dec.Decode(&ret); err != nil {
		return ret, err
	}

	return ret, nil
}
