package bundle

import (
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/eak1mov/go-libatlas/bundle/spec"
	"github.com/eak1mov/go-libatlas/store"
)

type Reader interface {
	io.Closer
	store.Reader
	store.Visitor

	ReadMetadata() ([]byte, error)
	ReadLocation(assetPath string) (Location, error)
	AssetLocations() iter.Seq2[string, Location]
}

type FileAccessFunc = func(offset, length uint64) ([]byte, error)

type reader struct {
	fileAccess FileAccessFunc
	fileCloser func() error
	header     *spec.Header
	entries    []spec.Entry
}

func NewFileReader(filePath string) (Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	size := uint64(info.Size())
	fileAccess := func(offset uint64, length uint64) ([]byte, error) {
		if offset > size || length > size-offset {
			return nil, fmt.Errorf("libatlas: range [%d, +%d) beyond file size %d: %w", offset, length, size, io.ErrUnexpectedEOF)
		}
		buffer := make([]byte, length)
		if _, err := file.ReadAt(buffer, int64(offset)); err != nil {
			return nil, err
		}
		return buffer, nil
	}
	r, err := newReader(fileAccess, file.Close)
	if err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func NewReader(fileAccess FileAccessFunc) (Reader, error) {
	return newReader(fileAccess, func() error { return nil })
}

// newReader reads the header and the whole directory up front; lookups are
// then served from memory.
func newReader(fileAccess FileAccessFunc, fileCloser func() error) (*reader, error) {
	headerData, err := fileAccess(0, spec.HeaderLength)
	if err != nil {
		return nil, err
	}
	header, err := spec.DeserializeHeader(headerData)
	if err != nil {
		return nil, err
	}
	dirCompressed, err := fileAccess(header.DirectoryOffset, header.DirectoryLength)
	if err != nil {
		return nil, err
	}
	dirData, err := spec.Decompress(dirCompressed, header.DirectoryCompression)
	if err != nil {
		return nil, err
	}
	entries, err := spec.DeserializeDirectory(dirData)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.Offset > header.DataLength || entry.Length > header.DataLength-entry.Offset {
			return nil, fmt.Errorf("%w: entry %q outside of data section", spec.ErrInvalidDirectory, entry.Name)
		}
	}
	return &reader{
		fileAccess: fileAccess,
		fileCloser: fileCloser,
		header:     header,
		entries:    entries,
	}, nil
}

func (r *reader) Close() error {
	return r.fileCloser()
}

func (r *reader) ReadMetadata() ([]byte, error) {
	return r.fileAccess(r.header.MetadataOffset, r.header.MetadataLength)
}

func (r *reader) location(entry spec.Entry) Location {
	return Location{
		Offset: r.header.DataOffset + entry.Offset,
		Length: entry.Length,
	}
}

func (r *reader) ReadLocation(assetPath string) (Location, error) {
	p, err := store.CleanPath(assetPath)
	if err != nil {
		return Location{}, err
	}
	entry, found := spec.FindEntry(r.entries, p)
	if !found {
		return Location{}, store.NotFound(assetPath)
	}
	return r.location(entry), nil
}

func (r *reader) ReadAsset(assetPath string) ([]byte, error) {
	location, err := r.ReadLocation(assetPath)
	if err != nil {
		return nil, err
	}
	return r.fileAccess(location.Offset, location.Length)
}

func (r *reader) VisitAssets(visitor func(string, []byte) error) error {
	for _, entry := range r.entries {
		location := r.location(entry)
		data, err := r.fileAccess(location.Offset, location.Length)
		if err != nil {
			return err
		}
		if err := visitor(entry.Name, data); err != nil {
			return err
		}
	}
	return nil
}

func (r *reader) AssetLocations() iter.Seq2[string, Location] {
	return func(yield func(string, Location) bool) {
		for _, entry := range r.entries {
			if !yield(entry.Name, r.location(entry)) {
				return
			}
		}
	}
}
