package localtree

import (
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/temirov/sdsaudit/internal/reconcile"
)

// Reader implements reconcile.LocalTreeReader on top of an afero filesystem.
type Reader struct {
	fileSystem afero.Fs
}

// NewReader constructs a Reader. A nil filesystem selects the operating system.
func NewReader(fileSystem afero.Fs) *Reader {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Reader{fileSystem: fileSystem}
}

// ListChildren partitions the immediate children of directoryPath.
// Symbolic links are followed; names in each partition are sorted.
func (reader *Reader) ListChildren(directoryPath string) (reconcile.LocalListing, error) {
	entries, readError := afero.ReadDir(reader.fileSystem, directoryPath)
	if readError != nil {
		return reconcile.LocalListing{}, &reconcile.LocalReadError{Path: directoryPath, Err: readError}
	}

	var listing reconcile.LocalListing
	for _, entry := range entries {
		childPath := filepath.Join(directoryPath, entry.Name())
		childInfo, statError := reader.fileSystem.Stat(childPath)
		if statError != nil {
			return reconcile.LocalListing{}, &reconcile.LocalReadError{Path: childPath, Err: statError}
		}

		if childInfo.IsDir() {
			empty, emptyError := afero.IsEmpty(reader.fileSystem, childPath)
			if emptyError != nil {
				return reconcile.LocalListing{}, &reconcile.LocalReadError{Path: childPath, Err: emptyError}
			}
			if empty {
				listing.EmptyDirectories = append(listing.EmptyDirectories, entry.Name())
			} else {
				listing.NonEmptyDirectories = append(listing.NonEmptyDirectories, entry.Name())
			}
			continue
		}

		if childInfo.Size() == 0 {
			listing.ZeroByteFiles = append(listing.ZeroByteFiles, entry.Name())
		} else {
			listing.NonEmptyFiles = append(listing.NonEmptyFiles, entry.Name())
		}
	}

	sort.Strings(listing.NonEmptyDirectories)
	sort.Strings(listing.EmptyDirectories)
	sort.Strings(listing.NonEmptyFiles)
	sort.Strings(listing.ZeroByteFiles)

	return listing, nil
}

// IsDirectory reports whether directoryPath exists and is a directory.
func (reader *Reader) IsDirectory(directoryPath string) (bool, error) {
	return afero.DirExists(reader.fileSystem, directoryPath)
}
