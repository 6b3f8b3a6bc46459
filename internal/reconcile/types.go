package reconcile

const (
	categoryLocalOnlyFoldersKeyConstant          = "local_only_folders"
	categoryLocalOnlyFilesKeyConstant            = "local_only_files"
	categoryLocalOnlyZeroByteFilesKeyConstant    = "local_only_zero_byte_files"
	categoryRemoteOnlyFoldersKeyConstant         = "remote_only_folders"
	categoryRemoteOnlyFilesKeyConstant           = "remote_only_files"
	categoryEmptyLocalFoldersOnRemoteKeyConstant = "empty_local_folders_on_remote"
	categoryUnknownKeyConstant                   = "unknown"
	pathSeparatorConstant                        = "/"
)

// EntryKind discriminates remote collections from remote leaves.
type EntryKind string

// Remote entry kinds.
const (
	EntryKindCollection EntryKind = "Collection"
	EntryKindLeaf       EntryKind = "Leaf"
)

// RemoteEntry is one child of a remote container.
type RemoteEntry struct {
	Identifier string
	Name       string
	Kind       EntryKind
}

// IsCollection reports whether the entry is folder-like.
func (entry RemoteEntry) IsCollection() bool {
	return entry.Kind == EntryKindCollection
}

// LocalListing partitions the immediate children of a local directory.
type LocalListing struct {
	NonEmptyDirectories []string
	EmptyDirectories    []string
	NonEmptyFiles       []string
	ZeroByteFiles       []string
}

// IsEmpty reports whether the listed directory had no children at all.
func (listing LocalListing) IsEmpty() bool {
	return len(listing.NonEmptyDirectories) == 0 &&
		len(listing.EmptyDirectories) == 0 &&
		len(listing.NonEmptyFiles) == 0 &&
		len(listing.ZeroByteFiles) == 0
}

// Category identifies one discrepancy accumulator.
type Category int

// Discrepancy categories in report order.
const (
	CategoryLocalOnlyFolders Category = iota
	CategoryLocalOnlyFiles
	CategoryLocalOnlyZeroByteFiles
	CategoryRemoteOnlyFolders
	CategoryRemoteOnlyFiles
	CategoryEmptyLocalFoldersOnRemote
)

var orderedCategories = []Category{
	CategoryLocalOnlyFolders,
	CategoryLocalOnlyFiles,
	CategoryLocalOnlyZeroByteFiles,
	CategoryRemoteOnlyFolders,
	CategoryRemoteOnlyFiles,
	CategoryEmptyLocalFoldersOnRemote,
}

// Categories returns every category in report order.
func Categories() []Category {
	return append([]Category{}, orderedCategories...)
}

// String returns the stable identifier of the category.
func (category Category) String() string {
	switch category {
	case CategoryLocalOnlyFolders:
		return categoryLocalOnlyFoldersKeyConstant
	case CategoryLocalOnlyFiles:
		return categoryLocalOnlyFilesKeyConstant
	case CategoryLocalOnlyZeroByteFiles:
		return categoryLocalOnlyZeroByteFilesKeyConstant
	case CategoryRemoteOnlyFolders:
		return categoryRemoteOnlyFoldersKeyConstant
	case CategoryRemoteOnlyFiles:
		return categoryRemoteOnlyFilesKeyConstant
	case CategoryEmptyLocalFoldersOnRemote:
		return categoryEmptyLocalFoldersOnRemoteKeyConstant
	default:
		return categoryUnknownKeyConstant
	}
}

// Result holds the six append-only discrepancy accumulators of a traversal.
type Result struct {
	LocalOnlyFolders          []string
	LocalOnlyFiles            []string
	LocalOnlyZeroByteFiles    []string
	RemoteOnlyFolders         []string
	RemoteOnlyFiles           []string
	EmptyLocalFoldersOnRemote []string
}

// Paths returns the accumulated paths of a category.
func (result Result) Paths(category Category) []string {
	switch category {
	case CategoryLocalOnlyFolders:
		return result.LocalOnlyFolders
	case CategoryLocalOnlyFiles:
		return result.LocalOnlyFiles
	case CategoryLocalOnlyZeroByteFiles:
		return result.LocalOnlyZeroByteFiles
	case CategoryRemoteOnlyFolders:
		return result.RemoteOnlyFolders
	case CategoryRemoteOnlyFiles:
		return result.RemoteOnlyFiles
	case CategoryEmptyLocalFoldersOnRemote:
		return result.EmptyLocalFoldersOnRemote
	default:
		return nil
	}
}

// Append records a path under the category.
func (result *Result) Append(category Category, path string) {
	switch category {
	case CategoryLocalOnlyFolders:
		result.LocalOnlyFolders = append(result.LocalOnlyFolders, path)
	case CategoryLocalOnlyFiles:
		result.LocalOnlyFiles = append(result.LocalOnlyFiles, path)
	case CategoryLocalOnlyZeroByteFiles:
		result.LocalOnlyZeroByteFiles = append(result.LocalOnlyZeroByteFiles, path)
	case CategoryRemoteOnlyFolders:
		result.RemoteOnlyFolders = append(result.RemoteOnlyFolders, path)
	case CategoryRemoteOnlyFiles:
		result.RemoteOnlyFiles = append(result.RemoteOnlyFiles, path)
	case CategoryEmptyLocalFoldersOnRemote:
		result.EmptyLocalFoldersOnRemote = append(result.EmptyLocalFoldersOnRemote, path)
	}
}

// Merge appends every accumulator of other after the receiver's entries.
func (result *Result) Merge(other Result) {
	for _, category := range orderedCategories {
		for _, path := range other.Paths(category) {
			result.Append(category, path)
		}
	}
}

// Total counts the entries across all categories.
func (result Result) Total() int {
	total := 0
	for _, category := range orderedCategories {
		total += len(result.Paths(category))
	}
	return total
}

// Root pairs a top-level category folder with its remote container.
// An empty ContainerID means the dataset has no container of that name.
type Root struct {
	Name        string
	LocalPath   string
	ContainerID string
}

func joinReconciliationPath(prefix string, name string) string {
	return prefix + name
}

func childPrefix(prefix string, name string) string {
	return prefix + name + pathSeparatorConstant
}
