package rawtx

import (
	"encoding/binary"
	"unicode/utf8"
)

func readU8(b []byte, off *int) (uint8, error) {
	if *off+1 > len(b) {
		return 0, malformed("unexpected EOF (u8)")
	}
	v := b[*off]
	*off++
	return v, nil
}

func readU16le(b []byte, off *int) (uint16, error) {
	if len(b)-*off < 2 {
		return 0, malformed("unexpected EOF (u16le)")
	}
	v := binary.LittleEndian.Uint16(b[*off : *off+2])
	*off += 2
	return v, nil
}

func readU32le(b []byte, off *int) (uint32, error) {
	if len(b)-*off < 4 {
		return 0, malformed("unexpected EOF (u32le)")
	}
	v := binary.LittleEndian.Uint32(b[*off : *off+4])
	*off += 4
	return v, nil
}

func readU64le(b []byte, off *int) (uint64, error) {
	if len(b)-*off < 8 {
		return 0, malformed("unexpected EOF (u64le)")
	}
	v := binary.LittleEndian.Uint64(b[*off : *off+8])
	*off += 8
	return v, nil
}

func readBytes(b []byte, off *int, n int) ([]byte, error) {
	if n < 0 {
		return nil, malformed("negative length")
	}
	if len(b)-*off < n {
		return nil, malformed("unexpected EOF (bytes)")
	}
	v := make([]byte, n)
	copy(v, b[*off:*off+n])
	*off += n
	return v, nil
}

// readCompactSize reads a Bitcoin-style CompactSize and rejects
// non-minimal encodings.
func readCompactSize(b []byte, off *int) (uint64, error) {
	tag, err := readU8(b, off)
	if err != nil {
		return 0, err
	}
	switch {
	case tag < 0xfd:
		return uint64(tag), nil
	case tag == 0xfd:
		v, err := readU16le(b, off)
		if err != nil {
			return 0, err
		}
		if v < 0xfd {
			return 0, malformed("non-minimal compactsize")
		}
		return uint64(v), nil
	case tag == 0xfe:
		v, err := readU32le(b, off)
		if err != nil {
			return 0, err
		}
		if v <= 0xffff {
			return 0, malformed("non-minimal compactsize")
		}
		return uint64(v), nil
	default:
		v, err := readU64le(b, off)
		if err != nil {
			return 0, err
		}
		if v <= 0xffff_ffff {
			return 0, malformed("non-minimal compactsize")
		}
		return v, nil
	}
}

// readVarBytes reads a CompactSize length prefix followed by that many bytes.
func readVarBytes(b []byte, off *int, name string) ([]byte, error) {
	n, err := readCompactSize(b, off)
	if err != nil {
		return nil, err
	}
	if n > uint64(len(b)-*off) {
		return nil, malformed("%s length %d exceeds remaining %d bytes", name, n, len(b)-*off)
	}
	return readBytes(b, off, int(n))
}

func readVarString(b []byte, off *int, name string, max int) (string, error) {
	bz, err := readVarBytes(b, off, name)
	if err != nil {
		return "", err
	}
	if len(bz) > max {
		return "", malformed("%s is %d bytes, max %d", name, len(bz), max)
	}
	if !utf8.Valid(bz) {
		return "", malformed("%s is not valid utf-8", name)
	}
	return string(bz), nil
}

// readCount reads a u64le repetition count and checks that the remaining
// bytes can hold count records of at least minRecord bytes each.
func readCount(b []byte, off *int, name string, minRecord int) (int, error) {
	n, err := readU64le(b, off)
	if err != nil {
		return 0, err
	}
	remaining := uint64(len(b) - *off)
	if n > remaining/uint64(minRecord) {
		return 0, malformed("%s count %d cannot fit in %d remaining bytes", name, n, remaining)
	}
	return int(n), nil
}
