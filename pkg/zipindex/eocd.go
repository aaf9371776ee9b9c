package zipindex

import (
	"encoding/binary"
)

const (
	eocdMagic    = 0x06054b50
	eocdMinSize  = 22
	eocd64Magic  = 0x06064b50
	eocd64Size   = 56
	locator64Magic = 0x07064b50
	locator64Size  = 20

	maxCommentSize = 0xFFFF
)

// endOfCentralDirectory holds the fields of the EOCD record this package
// cares about, widened to 64 bits once zip64 records are folded in.
type endOfCentralDirectory struct {
	offset      uint64 // position of the record itself within the file
	entryCount  uint64
	dirSize     uint64
	dirOffset   uint64
}

// findEOCD scans backward from the end of the file for the EOCD trailer.
// The trailer magic may also occur inside the archive comment, so a match
// only counts when the record's own comment-length field lands exactly at
// the end of the buffer. Comment lengths are tried from 0 upward, which
// makes the smallest (innermost) comment win, matching what installers do.
func findEOCD(data []byte) (*endOfCentralDirectory, error) {
	if len(data) < eocdMinSize {
		return nil, &ContainerError{Reason: "file too short for end-of-central-directory record"}
	}

	maxComment := len(data) - eocdMinSize
	if maxComment > maxCommentSize {
		maxComment = maxCommentSize
	}

	for comment := 0; comment <= maxComment; comment++ {
		pos := len(data) - eocdMinSize - comment
		if binary.LittleEndian.Uint32(data[pos:]) != eocdMagic {
			continue
		}
		if int(binary.LittleEndian.Uint16(data[pos+20:])) != comment {
			continue
		}

		eocd := &endOfCentralDirectory{
			offset:     uint64(pos),
			entryCount: uint64(binary.LittleEndian.Uint16(data[pos+10:])),
			dirSize:    uint64(binary.LittleEndian.Uint32(data[pos+12:])),
			dirOffset:  uint64(binary.LittleEndian.Uint32(data[pos+16:])),
		}
		if err := resolveZip64(data, eocd); err != nil {
			return nil, err
		}
		// Subtraction form: the sum of two attacker-controlled uint64
		// fields can wrap around.
		if eocd.dirOffset > eocd.offset || eocd.dirSize > eocd.offset-eocd.dirOffset {
			return nil, &ContainerError{Reason: "central directory extends past its end record"}
		}
		return eocd, nil
	}

	return nil, &ContainerError{Reason: "end-of-central-directory record not found"}
}

// resolveZip64 replaces saturated 16/32-bit EOCD fields with the values
// from the zip64 end-of-central-directory record, located through the
// fixed-size locator that directly precedes the EOCD.
func resolveZip64(data []byte, eocd *endOfCentralDirectory) error {
	saturated := eocd.entryCount == 0xFFFF ||
		eocd.dirSize == 0xFFFFFFFF ||
		eocd.dirOffset == 0xFFFFFFFF

	if eocd.offset < locator64Size {
		if saturated {
			return &ContainerError{Reason: "zip64 locator missing for saturated end record"}
		}
		return nil
	}

	locPos := eocd.offset - locator64Size
	if binary.LittleEndian.Uint32(data[locPos:]) != locator64Magic {
		if saturated {
			return &ContainerError{Reason: "zip64 locator missing for saturated end record"}
		}
		return nil
	}

	recPos := binary.LittleEndian.Uint64(data[locPos+8:])
	if recPos > uint64(len(data)) || uint64(len(data))-recPos < eocd64Size {
		return &ContainerError{Reason: "zip64 end record offset out of bounds"}
	}
	rec := data[recPos:]
	if binary.LittleEndian.Uint32(rec) != eocd64Magic {
		return &ContainerError{Reason: "zip64 end record has wrong signature"}
	}

	eocd.entryCount = binary.LittleEndian.Uint64(rec[32:])
	eocd.dirSize = binary.LittleEndian.Uint64(rec[40:])
	eocd.dirOffset = binary.LittleEndian.Uint64(rec[48:])
	return nil
}
