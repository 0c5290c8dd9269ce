package mem

import (
	"bytes"
	"testing"
)

func TestXOR(t *testing.T) {
	for _, n := range []int{0, 1, 16, 17, 64} {
		a := bytes.Repeat([]byte{0x0f}, n)
		b := bytes.Repeat([]byte{0xf0}, n+3)
		dst := make([]byte, n)

		if got, want := XOR(dst, a, b), n; got != want {
			t.Errorf("XOR(len=%d) = %d, want = %d", n, got, want)
		}
		if got, want := dst, bytes.Repeat([]byte{0xff}, n); !bytes.Equal(got, want) {
			t.Errorf("XOR(len=%d) dst = %x, want = %x", n, got, want)
		}
	}
}

func TestSliceForAppend(t *testing.T) {
	head, tail := SliceForAppend([]byte("abc"), 2)
	copy(tail, "de")

	if got, want := string(head), "abcde"; got != want {
		t.Errorf("SliceForAppend = %q, want = %q", got, want)
	}
}

func TestBlocks(t *testing.T) {
	blocks := Blocks([]byte("AAAABBBBCC"), 4)

	if got, want := len(blocks), 3; got != want {
		t.Fatalf("len(Blocks) = %d, want = %d", got, want)
	}
	if got, want := string(blocks[2]), "CC"; got != want {
		t.Errorf("Blocks[2] = %q, want = %q", got, want)
	}
	if got, want := string(Block([]byte("AAAABBBBCC"), 4, 1)), "BBBB"; got != want {
		t.Errorf("Block(1) = %q, want = %q", got, want)
	}
}

func TestClone(t *testing.T) {
	in := []byte("abc")
	out := Clone(in)
	out[0] = 'z'

	if got, want := string(in), "abc"; got != want {
		t.Errorf("Clone aliased input: %q, want = %q", got, want)
	}
	if Clone(nil) == nil {
		t.Error("Clone(nil) = nil, want non-nil empty slice")
	}
}
