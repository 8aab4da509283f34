package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func mustEncode(t *testing.T, payload []byte, compress bool) []byte {
	t.Helper()
	b, err := Encode(payload, compress)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	return b
}

func mustDecode(t *testing.T, b []byte) []byte {
	t.Helper()
	p, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return p
}

func TestPlainEmptyAndNonEmpty(t *testing.T) {
	for _, payload := range [][]byte{nil, []byte("hello"), {0, 1, 2, 3, 4}} {
		got := mustDecode(t, mustEncode(t, payload, false))
		if !bytes.Equal(got, payload) {
			t.Fatalf("payload mismatch: got %x want %x", got, payload)
		}
	}
}

func TestCompressedShrinksRepetitivePayload(t *testing.T) {
	payload := bytes.Repeat([]byte("the same embedding vector "), 2000)
	enc := mustEncode(t, payload, true)
	if len(enc) >= len(payload)/4 {
		t.Fatalf("expected xz to shrink repetitive payload, enc=%d raw=%d", len(enc), len(payload))
	}
	if enc[5] != kindXZ {
		t.Fatalf("expected kind xz, got %d", enc[5])
	}
	if got := mustDecode(t, enc); !bytes.Equal(got, payload) {
		t.Fatalf("compressed payload did not survive decode")
	}
}

func TestRejectsTrailingBytes(t *testing.T) {
	enc := mustEncode(t, []byte("x"), false)
	enc = append(enc, 0xDE, 0xAD) // add junk
	if _, err := Decode(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestCorruptHeadersAndLengths(t *testing.T) {
	enc := mustEncode(t, []byte("abc"), false)

	// bad magic
	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, err := Decode(badMagic); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on bad magic, got %v", err)
	}

	// wrong version
	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, err := Decode(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	// unknown kind
	badKind := append([]byte(nil), enc...)
	badKind[5] = 9
	if _, err := Decode(badKind); err == nil {
		t.Fatalf("expected error on bad kind")
	}

	// vlen beyond buffer; vlen is at offset 6..9
	tooLong := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(tooLong[6:10], uint32(len("abc")+1))
	if _, err := Decode(tooLong); err == nil {
		t.Fatalf("expected error on vlen beyond buffer")
	}

	// truncated buffer
	if _, err := Decode(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error on truncated buffer")
	}
	if _, err := Decode(enc[:3]); err == nil {
		t.Fatalf("expected error on short header")
	}
}

func TestCorruptCompressedBody(t *testing.T) {
	enc := mustEncode(t, bytes.Repeat([]byte("z"), 512), true)
	bad := append([]byte(nil), enc...)
	for i := hdrLen; i < len(bad); i++ {
		bad[i] ^= 0xFF
	}
	if _, err := Decode(bad); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on mangled xz body, got %v", err)
	}
}

func TestPlainZeroCopyPayload(t *testing.T) {
	enc := mustEncode(t, []byte("Z"), false)
	p := mustDecode(t, enc)
	// mutate payload slice. should mutate underlying enc bytes (zero-copy)
	p[0] = 'Q'
	if p2 := mustDecode(t, enc); p2[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into enc buffer")
	}
}

func TestPeek(t *testing.T) {
	payload := bytes.Repeat([]byte("abc"), 100)
	plain, err := Encode(payload, false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	h, err := Peek(plain)
	if err != nil || h.Compressed || h.Len != len(payload) {
		t.Fatalf("plain header: %+v err=%v", h, err)
	}

	packed, err := Encode(payload, true)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	h, err = Peek(packed)
	if err != nil || !h.Compressed || h.Len != len(packed)-hdrLen {
		t.Fatalf("xz header: %+v err=%v", h, err)
	}

	if _, err := Peek(plain[:len(plain)-1]); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("short frame: %v", err)
	}
}
