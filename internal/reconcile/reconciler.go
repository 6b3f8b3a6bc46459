package reconcile

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	reconcilingContainerMessageConstant   = "reconciling container"
	localRootMissingMessageConstant       = "local folder missing; treating as empty"
	remoteContainerMissingMessageConstant = "remote container missing for local folder"
	logFieldContainerIDConstant           = "container_id"
	logFieldPathConstant                  = "path"
	logFieldLocalPathConstant             = "local_path"
	logFieldRemoteFolderCountConstant     = "remote_folders"
	logFieldRemoteFileCountConstant       = "remote_files"
	logFieldMatchedFolderCountConstant    = "matched_folders"
)

// PresenceMode controls which local entries count as present when detecting
// remote-only folders and files.
type PresenceMode string

// Supported presence modes.
const (
	// PresenceNonEmptyOnly compares remote names against non-empty local
	// folders and files only. An empty local folder matching a remote folder
	// is therefore reported both as remote-only and as an empty local folder,
	// and a zero-byte local file never hides a remote file of the same name.
	PresenceNonEmptyOnly PresenceMode = "non_empty_only"
	// PresenceIncludeEmpty also treats empty local folders and zero-byte
	// local files as present.
	PresenceIncludeEmpty PresenceMode = "include_empty"
)

// Options tunes a Reconciler.
type Options struct {
	PresenceMode PresenceMode
	// Parallelism bounds how many subtrees are reconciled at once. Values
	// below two keep the traversal sequential.
	Parallelism int
}

// Reconciler drives the recursive local/remote comparison.
type Reconciler struct {
	remoteClient RemoteTreeClient
	localReader  LocalTreeReader
	logger       *zap.Logger
	presenceMode PresenceMode
	workerSlots  *semaphore.Weighted
}

type recursionTarget struct {
	localName string
	remote    RemoteEntry
}

// NewReconciler constructs a Reconciler over the provided collaborators.
func NewReconciler(remoteClient RemoteTreeClient, localReader LocalTreeReader, logger *zap.Logger, options Options) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}

	presenceMode := options.PresenceMode
	if presenceMode != PresenceIncludeEmpty {
		presenceMode = PresenceNonEmptyOnly
	}

	reconciler := &Reconciler{
		remoteClient: remoteClient,
		localReader:  localReader,
		logger:       logger,
		presenceMode: presenceMode,
	}

	// The calling goroutine always works too, so one slot fewer is handed out.
	if options.Parallelism > 1 {
		reconciler.workerSlots = semaphore.NewWeighted(int64(options.Parallelism - 1))
	}

	return reconciler
}

// Run reconciles every root in order and merges their results.
//
// A root whose local folder does not exist is compared against an empty
// listing, so all of its remote children are reported as remote-only. A root
// without a remote container is reported as a local-only folder when its
// local folder holds anything.
func (reconciler *Reconciler) Run(executionContext context.Context, roots []Root) (Result, error) {
	var combined Result
	for _, root := range roots {
		rootResult, rootError := reconciler.reconcileRoot(executionContext, root)
		if rootError != nil {
			return Result{}, rootError
		}
		combined.Merge(rootResult)
	}
	return combined, nil
}

// Reconcile compares localPath with the remote container and returns the
// discrepancies of the whole subtree, labelled with pathPrefix.
func (reconciler *Reconciler) Reconcile(executionContext context.Context, localPath string, containerID string, pathPrefix string) (Result, error) {
	return reconciler.reconcileLevel(executionContext, localPath, containerID, pathPrefix, false)
}

func (reconciler *Reconciler) reconcileRoot(executionContext context.Context, root Root) (Result, error) {
	if len(root.ContainerID) > 0 {
		return reconciler.reconcileLevel(executionContext, root.LocalPath, root.ContainerID, childPrefix("", root.Name), true)
	}

	listing, listError := reconciler.localReader.ListChildren(root.LocalPath)
	if listError != nil {
		if errors.Is(listError, fs.ErrNotExist) {
			return Result{}, nil
		}
		return Result{}, asLocalReadError(listError, root.LocalPath)
	}

	var result Result
	if !listing.IsEmpty() {
		reconciler.logger.Warn(
			remoteContainerMissingMessageConstant,
			zap.String(logFieldPathConstant, root.Name),
			zap.String(logFieldLocalPathConstant, root.LocalPath),
		)
		result.Append(CategoryLocalOnlyFolders, root.Name)
	}
	return result, nil
}

func (reconciler *Reconciler) reconcileLevel(executionContext context.Context, localPath string, containerID string, pathPrefix string, allowMissingLocal bool) (Result, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return Result{}, contextError
	}

	remoteEntries, fetchError := reconciler.remoteClient.ListChildren(executionContext, containerID)
	if fetchError != nil {
		return Result{}, asRemoteFetchError(fetchError, containerID, pathPrefix)
	}

	listing, listError := reconciler.localReader.ListChildren(localPath)
	if listError != nil {
		if !allowMissingLocal || !errors.Is(listError, fs.ErrNotExist) {
			return Result{}, asLocalReadError(listError, localPath)
		}
		reconciler.logger.Warn(
			localRootMissingMessageConstant,
			zap.String(logFieldPathConstant, pathPrefix),
			zap.String(logFieldLocalPathConstant, localPath),
		)
		listing = LocalListing{}
	}

	result, targets := classifyLevel(listing, remoteEntries, pathPrefix, reconciler.presenceMode)

	reconciler.logger.Debug(
		reconcilingContainerMessageConstant,
		zap.String(logFieldContainerIDConstant, containerID),
		zap.String(logFieldPathConstant, pathPrefix),
		zap.Int(logFieldMatchedFolderCountConstant, len(targets)),
		zap.Int(logFieldRemoteFolderCountConstant, countKind(remoteEntries, EntryKindCollection)),
		zap.Int(logFieldRemoteFileCountConstant, countKind(remoteEntries, EntryKindLeaf)),
	)

	childResults, childError := reconciler.reconcileTargets(executionContext, localPath, pathPrefix, targets)
	if childError != nil {
		return Result{}, childError
	}
	for _, childResult := range childResults {
		result.Merge(childResult)
	}

	return result, nil
}

func (reconciler *Reconciler) reconcileTargets(executionContext context.Context, localPath string, pathPrefix string, targets []recursionTarget) ([]Result, error) {
	results := make([]Result, len(targets))

	if reconciler.workerSlots == nil {
		for targetIndex, target := range targets {
			childResult, childError := reconciler.reconcileTarget(executionContext, localPath, pathPrefix, target)
			if childError != nil {
				return nil, childError
			}
			results[targetIndex] = childResult
		}
		return results, nil
	}

	cancellableContext, cancel := context.WithCancel(executionContext)
	defer cancel()
	group, groupContext := errgroup.WithContext(cancellableContext)

	var inlineError error
	for targetIndex, target := range targets {
		targetIndex, target := targetIndex, target
		work := func() error {
			childResult, childError := reconciler.reconcileTarget(groupContext, localPath, pathPrefix, target)
			if childError != nil {
				return childError
			}
			results[targetIndex] = childResult
			return nil
		}

		if reconciler.workerSlots.TryAcquire(1) {
			group.Go(func() error {
				defer reconciler.workerSlots.Release(1)
				return work()
			})
			continue
		}

		if inlineError = work(); inlineError != nil {
			cancel()
			break
		}
	}

	waitError := group.Wait()
	if inlineError != nil && !errors.Is(inlineError, context.Canceled) {
		return nil, inlineError
	}
	if waitError != nil {
		return nil, waitError
	}
	if inlineError != nil {
		return nil, inlineError
	}
	return results, nil
}

func (reconciler *Reconciler) reconcileTarget(executionContext context.Context, localPath string, pathPrefix string, target recursionTarget) (Result, error) {
	return reconciler.reconcileLevel(
		executionContext,
		filepath.Join(localPath, target.localName),
		target.remote.Identifier,
		childPrefix(pathPrefix, target.remote.Name),
		false,
	)
}

// classifyLevel applies the per-level matching rules and returns the
// discrepancies of this level together with the folders to descend into.
func classifyLevel(listing LocalListing, remoteEntries []RemoteEntry, pathPrefix string, presenceMode PresenceMode) (Result, []recursionTarget) {
	var remoteFolders []RemoteEntry
	var remoteFiles []RemoteEntry
	remoteFoldersByName := make(map[string][]RemoteEntry)
	remoteFileNames := mapset.NewThreadUnsafeSet[string]()
	for _, entry := range remoteEntries {
		if entry.IsCollection() {
			remoteFolders = append(remoteFolders, entry)
			remoteFoldersByName[entry.Name] = append(remoteFoldersByName[entry.Name], entry)
			continue
		}
		remoteFiles = append(remoteFiles, entry)
		remoteFileNames.Add(entry.Name)
	}

	var result Result
	var targets []recursionTarget

	for _, folderName := range listing.NonEmptyDirectories {
		matches, found := remoteFoldersByName[folderName]
		if !found {
			result.Append(CategoryLocalOnlyFolders, joinReconciliationPath(pathPrefix, folderName))
			continue
		}
		for _, match := range matches {
			targets = append(targets, recursionTarget{localName: folderName, remote: match})
		}
	}

	for _, folderName := range listing.EmptyDirectories {
		if _, found := remoteFoldersByName[folderName]; found {
			result.Append(CategoryEmptyLocalFoldersOnRemote, joinReconciliationPath(pathPrefix, folderName))
		}
	}

	for _, fileName := range listing.NonEmptyFiles {
		if !remoteFileNames.Contains(fileName) {
			result.Append(CategoryLocalOnlyFiles, joinReconciliationPath(pathPrefix, fileName))
		}
	}

	for _, fileName := range listing.ZeroByteFiles {
		if !remoteFileNames.Contains(fileName) {
			result.Append(CategoryLocalOnlyZeroByteFiles, joinReconciliationPath(pathPrefix, fileName))
		}
	}

	localFolderNames := mapset.NewThreadUnsafeSet[string](listing.NonEmptyDirectories...)
	localFileNames := mapset.NewThreadUnsafeSet[string](listing.NonEmptyFiles...)
	if presenceMode == PresenceIncludeEmpty {
		localFolderNames.Append(listing.EmptyDirectories...)
		localFileNames.Append(listing.ZeroByteFiles...)
	}

	for _, folder := range remoteFolders {
		if !localFolderNames.Contains(folder.Name) {
			result.Append(CategoryRemoteOnlyFolders, joinReconciliationPath(pathPrefix, folder.Name))
		}
	}

	for _, file := range remoteFiles {
		if !localFileNames.Contains(file.Name) {
			result.Append(CategoryRemoteOnlyFiles, joinReconciliationPath(pathPrefix, file.Name))
		}
	}

	return result, targets
}

func countKind(entries []RemoteEntry, kind EntryKind) int {
	count := 0
	for _, entry := range entries {
		if entry.Kind == kind {
			count++
		}
	}
	return count
}
