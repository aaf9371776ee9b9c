// Package zipindex reads the central directory of a ZIP-derived container
// (such as an APK) and offers random access to entry data without unpacking
// the whole archive. Directory metadata is verified against what the entry
// data actually yields, since APK metadata may be adversarial.
package zipindex

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

const (
	centralDirMagic   = 0x02014b50
	centralDirMinSize = 46
	localHeaderMagic  = 0x04034b50
	localHeaderSize   = 30

	zip64ExtraID = 0x0001

	// MethodStored and MethodDeflated are the only compression methods
	// Android accepts in an APK.
	MethodStored   = 0
	MethodDeflated = 8
)

// Entry describes one file recorded in the central directory. Immutable
// once indexed.
type Entry struct {
	Name             string
	Method           uint16
	CRC32            uint32
	CompressedSize   uint64
	UncompressedSize uint64
	HeaderOffset     uint64 // offset of the local header within the file
}

// Index is a parsed archive: the raw bytes plus the entry table. All reads
// borrow from the in-memory buffer; no file handle is retained.
type Index struct {
	data      []byte
	entries   []*Entry
	byName    map[string]*Entry
	dirOffset uint64
}

// Open reads the file at path into memory and indexes it.
func Open(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ContainerError{Reason: "reading archive", Err: err}
	}
	return New(data)
}

// New indexes an in-memory archive. The Index keeps a reference to data;
// callers must not mutate it afterwards.
func New(data []byte) (*Index, error) {
	if len(data) == 0 {
		return nil, &ContainerError{Reason: "empty input"}
	}

	eocd, err := findEOCD(data)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		data:      data,
		byName:    make(map[string]*Entry),
		dirOffset: eocd.dirOffset,
	}
	if err := ix.parseCentralDirectory(eocd); err != nil {
		return nil, err
	}
	return ix, nil
}

// parseCentralDirectory walks the directory region sequentially. Duplicate
// names are legal in real-world archives; the later entry in directory
// order wins, matching the behavior of common installer tooling.
func (ix *Index) parseCentralDirectory(eocd *endOfCentralDirectory) error {
	if eocd.dirOffset > uint64(len(ix.data)) {
		return &ContainerError{Reason: "central directory offset out of bounds"}
	}

	dir := ix.data[eocd.dirOffset : eocd.dirOffset+eocd.dirSize]
	for i := uint64(0); i < eocd.entryCount; i++ {
		if len(dir) < centralDirMinSize {
			return &ContainerError{Reason: fmt.Sprintf("central directory truncated at entry %d", i)}
		}
		if binary.LittleEndian.Uint32(dir) != centralDirMagic {
			return &ContainerError{Reason: fmt.Sprintf("bad signature on central directory entry %d", i)}
		}

		entry := &Entry{
			Method:           binary.LittleEndian.Uint16(dir[10:]),
			CRC32:            binary.LittleEndian.Uint32(dir[16:]),
			CompressedSize:   uint64(binary.LittleEndian.Uint32(dir[20:])),
			UncompressedSize: uint64(binary.LittleEndian.Uint32(dir[24:])),
			HeaderOffset:     uint64(binary.LittleEndian.Uint32(dir[42:])),
		}
		nameLen := int(binary.LittleEndian.Uint16(dir[28:]))
		extraLen := int(binary.LittleEndian.Uint16(dir[30:]))
		commentLen := int(binary.LittleEndian.Uint16(dir[32:]))

		total := centralDirMinSize + nameLen + extraLen + commentLen
		if len(dir) < total {
			return &ContainerError{Reason: fmt.Sprintf("central directory entry %d overruns directory", i)}
		}

		entry.Name = string(dir[centralDirMinSize : centralDirMinSize+nameLen])
		extra := dir[centralDirMinSize+nameLen : centralDirMinSize+nameLen+extraLen]
		if err := applyZip64Extra(entry, extra); err != nil {
			return err
		}

		if entry.HeaderOffset >= uint64(len(ix.data)) {
			return &ContainerError{Reason: fmt.Sprintf("entry %q local header offset out of bounds", entry.Name)}
		}

		ix.entries = append(ix.entries, entry)
		ix.byName[entry.Name] = entry

		dir = dir[total:]
	}
	return nil
}

// applyZip64Extra widens the saturated 32-bit fields of entry from the
// zip64 extended-information extra field. The field stores only the values
// that are saturated, in a fixed order.
func applyZip64Extra(entry *Entry, extra []byte) error {
	for len(extra) >= 4 {
		id := binary.LittleEndian.Uint16(extra)
		size := int(binary.LittleEndian.Uint16(extra[2:]))
		if len(extra) < 4+size {
			return &ContainerError{Reason: fmt.Sprintf("entry %q has truncated extra field", entry.Name)}
		}
		body := extra[4 : 4+size]
		extra = extra[4+size:]

		if id != zip64ExtraID {
			continue
		}
		for _, field := range []*uint64{&entry.UncompressedSize, &entry.CompressedSize, &entry.HeaderOffset} {
			if *field != 0xFFFFFFFF {
				continue
			}
			if len(body) < 8 {
				return &ContainerError{Reason: fmt.Sprintf("entry %q has short zip64 extra field", entry.Name)}
			}
			*field = binary.LittleEndian.Uint64(body)
			body = body[8:]
		}
	}
	return nil
}

// Entries returns all entries in central directory order, including
// shadowed duplicates.
func (ix *Index) Entries() []*Entry {
	return ix.entries
}

// Entry looks up a single entry by exact name.
func (ix *Index) Entry(name string) (*Entry, bool) {
	e, ok := ix.byName[name]
	return e, ok
}

// Names returns the entry names in central directory order.
func (ix *Index) Names() []string {
	names := make([]string, len(ix.entries))
	for i, e := range ix.entries {
		names[i] = e.Name
	}
	return names
}

// Bytes returns the entire underlying file content. Signing blocks live
// between the last entry's data and the central directory, outside any
// entry, so scanners need the raw file.
func (ix *Index) Bytes() []byte {
	return ix.data
}

// CentralDirectoryOffset returns the file offset of the central directory.
func (ix *Index) CentralDirectoryOffset() uint64 {
	return ix.dirOffset
}

// ReadEntry decompresses the named entry and returns its bytes. The local
// header is checked for self-consistency with the central directory, and
// the output is verified against the directory's recorded length and
// CRC-32; any mismatch is reported as a CorruptEntryError rather than
// returning silently wrong data.
func (ix *Index) ReadEntry(name string) ([]byte, error) {
	entry, ok := ix.byName[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}

	dataOff, err := ix.entryDataOffset(entry)
	if err != nil {
		return nil, err
	}

	// Subtraction form: CompressedSize comes from the directory (or a
	// zip64 extra) and may be large enough to wrap an addition.
	if dataOff > uint64(len(ix.data)) || entry.CompressedSize > uint64(len(ix.data))-dataOff {
		return nil, &CorruptEntryError{Name: name, Reason: "entry data extends past end of file"}
	}
	compressed := ix.data[dataOff : dataOff+entry.CompressedSize]

	var out []byte
	switch entry.Method {
	case MethodStored:
		if entry.CompressedSize != entry.UncompressedSize {
			return nil, &CorruptEntryError{Name: name, Reason: "stored entry with differing sizes"}
		}
		out = compressed
	case MethodDeflated:
		fr := flate.NewReader(bytes.NewReader(compressed))
		defer fr.Close()
		// One extra byte exposes streams longer than declared.
		out, err = io.ReadAll(io.LimitReader(fr, int64(entry.UncompressedSize)+1))
		if err != nil {
			return nil, &CorruptEntryError{Name: name, Reason: "deflate stream is broken"}
		}
	default:
		return nil, &CorruptEntryError{Name: name, Reason: fmt.Sprintf("unsupported compression method %d", entry.Method)}
	}

	if uint64(len(out)) != entry.UncompressedSize {
		return nil, &CorruptEntryError{Name: name, Reason: fmt.Sprintf("decompressed to %d bytes, directory records %d", len(out), entry.UncompressedSize)}
	}
	if crc32.ChecksumIEEE(out) != entry.CRC32 {
		return nil, &CorruptEntryError{Name: name, Reason: "CRC-32 mismatch against central directory"}
	}

	// Copy stored data out of the backing buffer so callers own the result.
	if entry.Method == MethodStored {
		out = append([]byte(nil), out...)
	}
	return out, nil
}

// entryDataOffset parses the local header and returns where the entry's
// compressed bytes begin. Local sizes written as zero (the data-descriptor
// convention) defer to the central directory; non-zero values must agree
// with it.
func (ix *Index) entryDataOffset(entry *Entry) (uint64, error) {
	off := entry.HeaderOffset
	if off+localHeaderSize > uint64(len(ix.data)) {
		return 0, &CorruptEntryError{Name: entry.Name, Reason: "local header extends past end of file"}
	}
	hdr := ix.data[off:]
	if binary.LittleEndian.Uint32(hdr) != localHeaderMagic {
		return 0, &CorruptEntryError{Name: entry.Name, Reason: "bad local header signature"}
	}

	method := binary.LittleEndian.Uint16(hdr[8:])
	if method != entry.Method {
		return 0, &CorruptEntryError{Name: entry.Name, Reason: "compression method disagrees with central directory"}
	}

	localCompressed := uint64(binary.LittleEndian.Uint32(hdr[18:]))
	localUncompressed := uint64(binary.LittleEndian.Uint32(hdr[22:]))
	if localCompressed != 0 && localCompressed != 0xFFFFFFFF && localCompressed != entry.CompressedSize {
		return 0, &CorruptEntryError{Name: entry.Name, Reason: "compressed size disagrees with central directory"}
	}
	if localUncompressed != 0 && localUncompressed != 0xFFFFFFFF && localUncompressed != entry.UncompressedSize {
		return 0, &CorruptEntryError{Name: entry.Name, Reason: "uncompressed size disagrees with central directory"}
	}

	nameLen := uint64(binary.LittleEndian.Uint16(hdr[26:]))
	extraLen := uint64(binary.LittleEndian.Uint16(hdr[28:]))
	return off + localHeaderSize + nameLen + extraLen, nil
}
