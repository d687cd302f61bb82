// Package bundle packs many assets into one read-only file that can back an
// asset server. Identical asset contents are stored once.
package bundle

// Location is an absolute byte range within a bundle file.
type Location struct {
	Offset uint64
	Length uint64
}

const FileExt = ".atlasbundle"
