// Package spec defines the on-disk layout of an asset bundle:
//
//	header | metadata | asset data | directory
//
// All integers are little-endian. The directory lists every asset name with
// the location of its data, sorted by name, and is stored compressed.
package spec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

type Header struct {
	HeaderMagic          uint64
	MetadataOffset       uint64
	MetadataLength       uint64
	DataOffset           uint64
	DataLength           uint64
	DirectoryOffset      uint64
	DirectoryLength      uint64
	AssetEntriesCount    uint64
	AssetContentsCount   uint64
	DirectoryCompression Compression
}

const (
	headerMagic     uint64 = 0x4C444E424C5441 // "ATLBNDL"
	headerMagicMask uint64 = 1<<56 - 1
	HeaderMagicV1   uint64 = headerMagic | (0x01 << 56)

	HeaderLength = 73
)

var ErrInvalidHeader = errors.New("libatlas: invalid bundle header")
var ErrInvalidVersion = errors.New("libatlas: unsupported bundle version")

func SerializeHeader(header *Header) []byte {
	var buffer bytes.Buffer
	writer := bufio.NewWriter(&buffer)
	binary.Write(writer, binary.LittleEndian, header)
	writer.Flush()
	return buffer.Bytes()
}

func DeserializeHeader(buffer []byte) (*Header, error) {
	header := Header{}
	reader := bytes.NewReader(buffer)
	err := binary.Read(reader, binary.LittleEndian, &header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if header.HeaderMagic&headerMagicMask != headerMagic {
		return nil, ErrInvalidHeader
	}
	if header.HeaderMagic != HeaderMagicV1 {
		return nil, ErrInvalidVersion
	}
	return &header, nil
}
