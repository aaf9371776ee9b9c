// Package axml decodes Android's compact binary XML encoding (AXML) of
// AndroidManifest.xml into a navigable tree and answers the launch-metadata
// queries an installer needs. Resource references are surfaced as typed
// values, never resolved against a resource table.
package axml

import (
	"encoding/binary"
	"fmt"
)

// Chunk type identifiers, from ResourceTypes.h.
const (
	chunkStringPool     = 0x0001
	chunkXML            = 0x0003
	chunkStartNamespace = 0x0100
	chunkEndNamespace   = 0x0101
	chunkStartElement   = 0x0102
	chunkEndElement     = 0x0103
	chunkCData          = 0x0104
	chunkLastXML        = 0x017f
	chunkResourceMap    = 0x0180
)

const (
	resChunkHeaderSize = 8
	xmlNodeHeaderSize  = 0x10
	attrDefaultSize    = 0x14
)

// Decode parses a binary manifest into its tree form. The stream is
// consumed in a single pass with a stack of open elements; every chunk is
// bounds-checked before it is entered, so a hostile length field fails with
// MalformedManifestError instead of reading out of range.
func Decode(data []byte) (*Manifest, error) {
	if len(data) < resChunkHeaderSize {
		return nil, &MalformedManifestError{Reason: "input shorter than a chunk header"}
	}

	// Root chunk. Some malware rewrites the type word, which the platform
	// parser ignores, but the 8-byte header size is load-bearing.
	rootHeaderSize := binary.LittleEndian.Uint16(data[2:])
	if rootHeaderSize != resChunkHeaderSize {
		return nil, &MalformedManifestError{Reason: fmt.Sprintf("root chunk header size %d, want 8", rootHeaderSize)}
	}
	rootSize := binary.LittleEndian.Uint32(data[4:])
	if uint64(rootSize) > uint64(len(data)) {
		return nil, &MalformedManifestError{Reason: "root chunk size exceeds input"}
	}

	d := &decoder{rest: data[resChunkHeaderSize:rootSize]}
	return d.run()
}

type decoder struct {
	rest        []byte
	pool        *stringPool
	resourceIDs []uint32

	stack []*Node
	root  *Node
}

func (d *decoder) run() (*Manifest, error) {
	for len(d.rest) > 0 {
		if len(d.rest) < resChunkHeaderSize {
			return nil, &MalformedManifestError{Reason: "trailing bytes shorter than a chunk header"}
		}
		typ := binary.LittleEndian.Uint16(d.rest)
		headerSize := binary.LittleEndian.Uint16(d.rest[2:])
		size := binary.LittleEndian.Uint32(d.rest[4:])

		if uint64(size) > uint64(len(d.rest)) {
			return nil, &MalformedManifestError{Reason: fmt.Sprintf("chunk 0x%04x declares %d bytes, %d remain", typ, size, len(d.rest))}
		}
		if size < uint32(headerSize) || headerSize < resChunkHeaderSize {
			return nil, &MalformedManifestError{Reason: fmt.Sprintf("chunk 0x%04x header size %d inconsistent with size %d", typ, headerSize, size)}
		}

		chunk := d.rest[:size]
		d.rest = d.rest[size:]

		if err := d.handleChunk(typ, headerSize, chunk); err != nil {
			return nil, err
		}
	}

	if len(d.stack) != 0 {
		return nil, &MalformedManifestError{Reason: fmt.Sprintf("%d elements left open at end of stream", len(d.stack))}
	}
	if d.root == nil {
		return nil, &MalformedManifestError{Reason: "no root element"}
	}
	return &Manifest{Root: d.root}, nil
}

func (d *decoder) handleChunk(typ, headerSize uint16, chunk []byte) error {
	switch typ {
	case chunkStringPool:
		pool, err := parseStringPool(chunk, headerSize)
		if err != nil {
			return err
		}
		d.pool = pool
		return nil

	case chunkResourceMap:
		body := chunk[headerSize:]
		d.resourceIDs = make([]uint32, 0, len(body)/4)
		for len(body) >= 4 {
			d.resourceIDs = append(d.resourceIDs, binary.LittleEndian.Uint32(body))
			body = body[4:]
		}
		return nil

	case chunkStartElement, chunkEndElement:
		if headerSize != xmlNodeHeaderSize {
			// Junk chunk inserted by a packer; the platform skips these.
			return nil
		}
		if d.pool == nil {
			return &MalformedManifestError{Reason: "element chunk before string pool"}
		}
		// Skip line number and comment.
		body := chunk[xmlNodeHeaderSize:]
		if typ == chunkStartElement {
			return d.startElement(body)
		}
		return d.endElement()

	case chunkStartNamespace, chunkEndNamespace, chunkCData:
		// Namespace bookkeeping and character data do not affect the
		// queries this decoder answers.
		return nil

	default:
		// Unknown chunk types are skipped whole; the length check in run
		// already guaranteed forward progress.
		return nil
	}
}

func (d *decoder) startElement(body []byte) error {
	if len(body) < 20 {
		return &MalformedManifestError{Reason: "start-element chunk truncated"}
	}
	nameIdx := binary.LittleEndian.Uint32(body[4:])
	attrStart := binary.LittleEndian.Uint16(body[8:])
	attrSize := binary.LittleEndian.Uint16(body[10:])
	attrCount := binary.LittleEndian.Uint16(body[12:])

	name, ok := d.pool.get(nameIdx)
	if !ok {
		return &MalformedManifestError{Reason: "element name index out of string pool range"}
	}

	if attrSize < attrDefaultSize {
		attrSize = attrDefaultSize
	}
	// attrStart is relative to the end of the node header; packers pad it.
	if int(attrStart) > len(body) {
		return &MalformedManifestError{Reason: "attribute table starts past chunk end"}
	}
	attrs := body[attrStart:]

	node := &Node{Name: name}
	for i := uint16(0); i < attrCount; i++ {
		if len(attrs) < int(attrSize) {
			return &MalformedManifestError{Reason: "attribute record truncated"}
		}
		rec := attrs[:attrSize]
		attrs = attrs[attrSize:]

		attr, err := d.parseAttr(rec)
		if err != nil {
			return err
		}
		node.Attrs = append(node.Attrs, attr)
	}

	d.stack = append(d.stack, node)
	return nil
}

func (d *decoder) parseAttr(rec []byte) (Attr, error) {
	nsIdx := binary.LittleEndian.Uint32(rec)
	nameIdx := binary.LittleEndian.Uint32(rec[4:])
	dataType := rec[15]
	data := binary.LittleEndian.Uint32(rec[16:])

	name, err := d.attrName(nameIdx)
	if err != nil {
		return Attr{}, err
	}

	var str string
	if dataType == typeString {
		s, ok := d.pool.get(data)
		if !ok {
			return Attr{}, &MalformedManifestError{Reason: "attribute value index out of string pool range"}
		}
		str = s
	}

	var ns string
	if nsIdx != 0xFFFFFFFF {
		ns, _ = d.pool.get(nsIdx)
	}

	return Attr{Namespace: ns, Name: name, Value: makeValue(dataType, data, str)}, nil
}

// attrName resolves an attribute name: the string pool when it has a real
// entry, otherwise the resource map against the well-known android:
// attribute IDs (obfuscators blank the pool strings but keep the IDs).
func (d *decoder) attrName(idx uint32) (string, error) {
	if s, ok := d.pool.get(idx); ok && s != "" {
		return s, nil
	}
	if int64(idx) < int64(len(d.resourceIDs)) {
		if name, ok := systemAttrNames[d.resourceIDs[idx]]; ok {
			return name, nil
		}
	}
	if _, ok := d.pool.get(idx); ok {
		// Pool entry exists but is empty and the resource map has no
		// answer; keep the attribute with its empty name.
		return "", nil
	}
	return "", &MalformedManifestError{Reason: "attribute name index out of string pool range"}
}

func (d *decoder) endElement() error {
	if len(d.stack) == 0 {
		return &MalformedManifestError{Reason: "end tag without matching start tag"}
	}
	top := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]

	if len(d.stack) == 0 {
		if d.root != nil {
			return &MalformedManifestError{Reason: "multiple root elements"}
		}
		d.root = top
		return nil
	}
	parent := d.stack[len(d.stack)-1]
	parent.Children = append(parent.Children, top)
	return nil
}
