// Package imagefmt wraps the image codecs used for atlas textures: a closed
// set of named formats, extension based detection and a raw image loader.
package imagefmt

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrFormat is returned for unknown or unsupported formats and for image
// data that cannot be decoded or encoded.
var ErrFormat = errors.New("libatlas: image format error")

// Format is an image encoding. The zero value means "detect from the file
// extension".
type Format int

const (
	Auto Format = iota
	PNG
	JPEG
	GIF
	BMP
	TIFF
	WebP
)

var formatNames = [...]string{
	Auto: "",
	PNG:  "png",
	JPEG: "jpeg",
	GIF:  "gif",
	BMP:  "bmp",
	TIFF: "tiff",
	WebP: "webp",
}

// formatExtensions lists file extensions per format, primary first.
var formatExtensions = [...][]string{
	Auto: nil,
	PNG:  {"png"},
	JPEG: {"jpg", "jpeg"},
	GIF:  {"gif"},
	BMP:  {"bmp"},
	TIFF: {"tiff", "tif"},
	WebP: {"webp"},
}

// Formats returns every concrete format.
func Formats() []Format {
	return []Format{PNG, JPEG, GIF, BMP, TIFF, WebP}
}

func (f Format) valid() bool {
	return f >= Auto && int(f) < len(formatNames)
}

func (f Format) String() string {
	if f == Auto {
		return "auto"
	}
	if !f.valid() {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// Extension returns the primary file extension of f, without a dot.
func (f Format) Extension() string {
	if exts := f.Extensions(); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

func (f Format) Extensions() []string {
	if !f.valid() {
		return nil
	}
	return formatExtensions[f]
}

// CanEncode reports whether Encode supports f.
func (f Format) CanEncode() bool {
	switch f {
	case PNG, JPEG, GIF, BMP, TIFF:
		return true
	}
	return false
}

// ParseFormat parses a format name or one of its extensions, ignoring case.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	if s == "" || s == "auto" {
		return Auto, nil
	}
	for _, f := range Formats() {
		if formatNames[f] == s {
			return f, nil
		}
		for _, ext := range formatExtensions[f] {
			if ext == s {
				return f, nil
			}
		}
	}
	return Auto, fmt.Errorf("%w: unknown format %q", ErrFormat, s)
}

// FromExtension detects the format from the extension of assetPath.
func FromExtension(assetPath string) (Format, error) {
	ext := path.Ext(assetPath)
	if ext == "" {
		return Auto, fmt.Errorf("%w: no extension in %q", ErrFormat, assetPath)
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return Auto, fmt.Errorf("%w: unknown extension in %q", ErrFormat, assetPath)
	}
	return f, nil
}

func (f Format) MarshalYAML() (any, error) {
	if !f.valid() {
		return nil, fmt.Errorf("%w: %v", ErrFormat, f)
	}
	if f == Auto {
		return nil, nil
	}
	return formatNames[f], nil
}

func (f *Format) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f Format) MarshalText() ([]byte, error) {
	if !f.valid() {
		return nil, fmt.Errorf("%w: %v", ErrFormat, f)
	}
	return []byte(formatNames[f]), nil
}

func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
