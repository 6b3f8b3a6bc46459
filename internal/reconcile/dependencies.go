package reconcile

import "context"

// RemoteTreeClient lists the children of a remote container, resolving
// pagination so the returned slice holds every child.
type RemoteTreeClient interface {
	ListChildren(executionContext context.Context, containerID string) ([]RemoteEntry, error)
}

// LocalTreeReader lists and partitions the immediate children of a local directory.
// Errors for missing directories must satisfy errors.Is(err, fs.ErrNotExist).
type LocalTreeReader interface {
	ListChildren(directoryPath string) (LocalListing, error)
}
