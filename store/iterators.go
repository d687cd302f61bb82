package store

import (
	"errors"
	"iter"
)

var errVisitCancelled = errors.New("visit cancelled")

// IterAssets returns an iterator over all assets in the storage.
// It yields asset paths and their data. Iteration panics on unrecoverable errors.
func IterAssets(v Visitor) iter.Seq2[string, []byte] {
	return func(yield func(string, []byte) bool) {
		err := v.VisitAssets(func(assetPath string, data []byte) error {
			if !yield(assetPath, data) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}
