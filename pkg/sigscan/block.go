package sigscan

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/apkscope/apkscope/pkg/zipindex"
)

// APK Signing Block layout constants. The block sits between the last
// entry's data and the central directory: ID-length-value pairs, a
// repeated size field at both ends, and a 16-byte magic closing the
// footer.
const (
	blockFooterSize = 24 // u64 size + 16-byte magic
	blockMinSize    = 32

	blockIDSchemeV2  = 0x7109871a
	blockIDSchemeV3  = 0xf05368c0
	blockIDSchemeV31 = 0x1b93ad61
	blockIDChannel   = 0x71777777
)

var blockMagic = []byte("APK Sig Block 42")

// Scan walks every signing scheme present in the archive. An archive with
// no signing material at all yields an empty report, not an error;
// structural violations in a present signing block are fatal to the scan.
func Scan(ix *zipindex.Index) (*Report, error) {
	report := &Report{}

	scanV1(ix, report)

	schemes, err := scanSigningBlock(ix.Bytes(), ix.CentralDirectoryOffset())
	if err != nil {
		return nil, err
	}
	report.Schemes = append(report.Schemes, schemes...)

	return report, nil
}

// scanSigningBlock locates the block through its footer, cross-checks the
// duplicated size field, and walks the ID-length-value entries. Returns
// (nil, nil) when no block exists.
func scanSigningBlock(raw []byte, cdOffset uint64) ([]Scheme, error) {
	if cdOffset < blockFooterSize || cdOffset > uint64(len(raw)) {
		return nil, nil
	}

	footer := raw[cdOffset-blockFooterSize : cdOffset]
	if !bytes.Equal(footer[8:], blockMagic) {
		// No signing block; perfectly valid.
		return nil, nil
	}

	// The size field counts everything except itself at the block start.
	size := binary.LittleEndian.Uint64(footer)
	if size < blockFooterSize {
		return nil, &MalformedBlockError{Reason: fmt.Sprintf("declared size %d smaller than footer", size)}
	}
	// Subtraction form so a size near 2^64 cannot wrap the comparison.
	// cdOffset is at least blockFooterSize here.
	if size > cdOffset-8 {
		return nil, &MalformedBlockError{Reason: fmt.Sprintf("declared size %d exceeds bytes before central directory", size)}
	}

	blockStart := cdOffset - size - 8
	if headSize := binary.LittleEndian.Uint64(raw[blockStart:]); headSize != size {
		return nil, &MalformedBlockError{Reason: fmt.Sprintf("size fields disagree: %d at start, %d in footer", headSize, size)}
	}

	var schemes []Scheme
	entries := raw[blockStart+8 : cdOffset-blockFooterSize]
	for len(entries) > 0 {
		if len(entries) < 12 {
			return nil, &MalformedBlockError{Reason: "trailing bytes too short for an entry header"}
		}
		entryLen := binary.LittleEndian.Uint64(entries)
		if entryLen < 4 || entryLen > uint64(len(entries))-8 {
			return nil, &MalformedBlockError{Reason: fmt.Sprintf("entry length %d out of range, %d bytes remain", entryLen, len(entries)-8)}
		}
		id := binary.LittleEndian.Uint32(entries[8:])
		value := entries[12 : 8+entryLen]
		entries = entries[8+entryLen:]

		scheme, err := parseBlockEntry(id, value)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, scheme)
	}
	return schemes, nil
}

func parseBlockEntry(id uint32, value []byte) (Scheme, error) {
	switch id {
	case blockIDSchemeV2:
		signers, err := parseSigners(value, SchemeV2)
		if err != nil {
			return Scheme{}, err
		}
		return Scheme{Kind: SchemeV2, BlockID: id, Signers: signers}, nil
	case blockIDSchemeV3:
		signers, err := parseSigners(value, SchemeV3)
		if err != nil {
			return Scheme{}, err
		}
		return Scheme{Kind: SchemeV3, BlockID: id, Signers: signers}, nil
	case blockIDSchemeV31:
		signers, err := parseSigners(value, SchemeV31)
		if err != nil {
			return Scheme{}, err
		}
		return Scheme{Kind: SchemeV31, BlockID: id, Signers: signers}, nil
	case blockIDChannel:
		return Scheme{Kind: SchemeChannel, BlockID: id, Raw: value}, nil
	default:
		// Padding, source stamps, dependency metadata, future schemes:
		// carried verbatim.
		return Scheme{Kind: SchemeUnknown, BlockID: id, Raw: value}, nil
	}
}
