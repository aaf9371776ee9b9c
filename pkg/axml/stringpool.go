package axml

import (
	"encoding/binary"
	"unicode/utf16"
)

const (
	flagUTF8 = 1 << 8
)

// stringPool holds the decoded string table every other chunk indexes into.
type stringPool struct {
	strings []string
}

func (p *stringPool) get(idx uint32) (string, bool) {
	if int64(idx) >= int64(len(p.strings)) {
		return "", false
	}
	return p.strings[idx], true
}

// parseStringPool decodes a string pool chunk. chunk is the full chunk
// including its 8-byte res-chunk header; headerSize is the declared header
// size from that header.
func parseStringPool(chunk []byte, headerSize uint16) (*stringPool, error) {
	if len(chunk) < 28 || int(headerSize) > len(chunk) {
		return nil, &MalformedManifestError{Reason: "string pool header truncated"}
	}

	stringCount := binary.LittleEndian.Uint32(chunk[8:])
	flags := binary.LittleEndian.Uint32(chunk[16:])
	stringsStart := binary.LittleEndian.Uint32(chunk[20:])

	if uint64(stringsStart) > uint64(len(chunk)) {
		return nil, &MalformedManifestError{Reason: "string pool data start out of range"}
	}
	// Offsets sit between the header and the string data.
	if uint64(headerSize)+uint64(stringCount)*4 > uint64(stringsStart) {
		return nil, &MalformedManifestError{Reason: "string pool offset table overruns string data"}
	}

	utf8 := flags&flagUTF8 != 0
	data := chunk[stringsStart:]

	pool := &stringPool{strings: make([]string, 0, stringCount)}
	for i := uint32(0); i < stringCount; i++ {
		off := binary.LittleEndian.Uint32(chunk[uint32(headerSize)+i*4:])
		if uint64(off) >= uint64(len(data)) {
			return nil, &MalformedManifestError{Reason: "string offset out of range"}
		}
		s, err := parsePoolString(data[off:], utf8)
		if err != nil {
			return nil, err
		}
		pool.strings = append(pool.strings, s)
	}
	return pool, nil
}

// parsePoolString reads one length-prefixed string. Lengths with the high
// bit set spill into a second length unit (strings longer than 0x7FFF
// UTF-16 units or 0x7F UTF-8 units).
func parsePoolString(b []byte, utf8 bool) (string, error) {
	if utf8 {
		// UTF-8 entries carry two lengths: the UTF-16 character count,
		// then the byte count. Only the byte count matters here.
		_, rest, ok := readLen8(b)
		if !ok {
			return "", &MalformedManifestError{Reason: "truncated string length"}
		}
		n, rest, ok := readLen8(rest)
		if !ok || len(rest) < n {
			return "", &MalformedManifestError{Reason: "string data out of range"}
		}
		return string(rest[:n]), nil
	}

	if len(b) < 2 {
		return "", &MalformedManifestError{Reason: "truncated string length"}
	}
	n := int(binary.LittleEndian.Uint16(b))
	b = b[2:]
	if n&0x8000 != 0 {
		if len(b) < 2 {
			return "", &MalformedManifestError{Reason: "truncated string length"}
		}
		n = (n&0x7FFF)<<16 | int(binary.LittleEndian.Uint16(b))
		b = b[2:]
	}
	if len(b) < n*2 {
		return "", &MalformedManifestError{Reason: "string data out of range"}
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units)), nil
}

func readLen8(b []byte) (n int, rest []byte, ok bool) {
	if len(b) < 1 {
		return 0, nil, false
	}
	n = int(b[0])
	b = b[1:]
	if n&0x80 != 0 {
		if len(b) < 1 {
			return 0, nil, false
		}
		n = (n&0x7F)<<8 | int(b[0])
		b = b[1:]
	}
	return n, b, true
}
