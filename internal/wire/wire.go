package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

const (
	version   byte = 1
	kindPlain byte = 1
	kindXZ    byte = 2

	hdrLen = 4 + 1 + 1 + 4
)

var (
	ErrCorrupt = errors.New("batchcache: corrupt entry")
	magic4     = [...]byte{'B', 'T', 'C', 'H'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | kind(1=plain, 2=xz) | vlen(u32 be) | payload(vlen)
//
// With compress=true the payload is stored xz (LZMA2) compressed.
func Encode(payload []byte, compress bool) ([]byte, error) {
	kind := kindPlain
	if compress {
		var zb bytes.Buffer
		zw, err := xz.NewWriter(&zb)
		if err != nil {
			return nil, fmt.Errorf("wire: xz writer: %w", err)
		}
		if _, err := zw.Write(payload); err != nil {
			return nil, fmt.Errorf("wire: xz write: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("wire: xz close: %w", err)
		}
		payload = zb.Bytes()
		kind = kindXZ
	}
	if uint64(len(payload)) > 0xFFFFFFFF {
		return nil, fmt.Errorf("wire: payload too large: %d", len(payload))
	}

	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes(), nil
}

// Decode validates the frame and returns the (decompressed) payload.
// Plain payloads alias b. Trailing bytes are rejected.
func Decode(b []byte) ([]byte, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return nil, ErrCorrupt
	}
	kind := b[5]
	if kind != kindPlain && kind != kindXZ {
		return nil, ErrCorrupt
	}

	off := 6
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // exact framing
		return nil, ErrCorrupt
	}
	payload := b[off : off+vlen]

	if kind == kindPlain {
		return payload, nil
	}
	zr, err := xz.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: xz header: %v", ErrCorrupt, err)
	}
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: xz body: %v", ErrCorrupt, err)
	}
	return out, nil
}

// Header describes a frame without decoding its payload.
type Header struct {
	Compressed bool
	Len        int // stored payload length, after compression
}

// Peek validates the frame header and framing length only.
func Peek(b []byte) (Header, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return Header{}, ErrCorrupt
	}
	kind := b[5]
	if kind != kindPlain && kind != kindXZ {
		return Header{}, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[6:10]))
	if vlen != len(b)-hdrLen {
		return Header{}, ErrCorrupt
	}
	return Header{Compressed: kind == kindXZ, Len: vlen}, nil
}
