package spec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Entry locates the data of one asset, relative to Header.DataOffset.
type Entry struct {
	Name   string
	Offset uint64
	Length uint64
}

var ErrInvalidDirectory = errors.New("libatlas: invalid bundle directory")

func sharedPrefix(a, b string) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// SerializeDirectory encodes entries sorted by name. Names are front-coded
// against the previous name; an offset equal to the end of the previous
// entry is stored as 0.
func SerializeDirectory(entries []Entry) []byte {
	buffer := make([]byte, 0)

	buffer = binary.AppendUvarint(buffer, uint64(len(entries)))

	lastName := ""
	for _, entry := range entries {
		shared := sharedPrefix(lastName, entry.Name)
		buffer = binary.AppendUvarint(buffer, uint64(shared))
		buffer = binary.AppendUvarint(buffer, uint64(len(entry.Name)-shared))
		buffer = append(buffer, entry.Name[shared:]...)
		lastName = entry.Name
	}

	for _, entry := range entries {
		buffer = binary.AppendUvarint(buffer, entry.Length)
	}

	nextOffset := uint64(0)
	for i, entry := range entries {
		if i > 0 && entry.Offset == nextOffset {
			buffer = binary.AppendUvarint(buffer, 0)
		} else {
			buffer = binary.AppendUvarint(buffer, entry.Offset+1)
		}
		nextOffset = entry.Offset + entry.Length
	}

	return buffer
}

func DeserializeDirectory(data []byte) ([]Entry, error) {
	byteReader := bytes.NewReader(data)

	var err error
	readUvarint := func() uint64 {
		if err != nil {
			return 0
		}
		var value uint64
		value, err = binary.ReadUvarint(byteReader)
		return value
	}

	numEntries := readUvarint()
	if err == nil && numEntries > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d entries in %d bytes", ErrInvalidDirectory, numEntries, len(data))
	}
	entries := make([]Entry, numEntries)

	lastName := ""
	for i := range numEntries {
		shared := readUvarint()
		suffixLength := readUvarint()
		if err != nil {
			break
		}
		if shared > uint64(len(lastName)) || suffixLength > uint64(byteReader.Len()) {
			err = io.ErrUnexpectedEOF
			break
		}
		suffix := make([]byte, suffixLength)
		byteReader.Read(suffix)
		entries[i].Name = lastName[:shared] + string(suffix)
		lastName = entries[i].Name
	}

	for i := range numEntries {
		entries[i].Length = readUvarint()
	}

	for i := range numEntries {
		value := readUvarint()
		if value == 0 && i > 0 {
			entries[i].Offset = entries[i-1].Offset + entries[i-1].Length
		} else {
			entries[i].Offset = value - 1
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	return entries, nil
}

// FindEntry looks up name in entries sorted by name.
func FindEntry(entries []Entry, name string) (Entry, bool) {
	idx, found := slices.BinarySearchFunc(entries, name, func(e Entry, name string) int {
		return strings.Compare(e.Name, name)
	})
	if !found {
		return Entry{}, false
	}
	return entries[idx], true
}
