package reconcile

import (
	"errors"
	"fmt"
)

const (
	remoteFetchErrorTemplateConstant         = "unable to list remote container %s: %v"
	remoteFetchErrorWithPathTemplateConstant = "unable to list remote container %s at %s: %v"
	localReadErrorTemplateConstant           = "unable to read local directory %s: %v"
)

// RemoteFetchError reports a failure listing the children of a remote container.
type RemoteFetchError struct {
	ContainerID string
	Path        string
	Err         error
}

func (fetchError *RemoteFetchError) Error() string {
	if len(fetchError.Path) == 0 {
		return fmt.Sprintf(remoteFetchErrorTemplateConstant, fetchError.ContainerID, fetchError.Err)
	}
	return fmt.Sprintf(remoteFetchErrorWithPathTemplateConstant, fetchError.ContainerID, fetchError.Path, fetchError.Err)
}

func (fetchError *RemoteFetchError) Unwrap() error {
	return fetchError.Err
}

// LocalReadError reports a failure listing or stating a local path.
type LocalReadError struct {
	Path string
	Err  error
}

func (readError *LocalReadError) Error() string {
	return fmt.Sprintf(localReadErrorTemplateConstant, readError.Path, readError.Err)
}

func (readError *LocalReadError) Unwrap() error {
	return readError.Err
}

func asRemoteFetchError(cause error, containerID string, path string) error {
	var fetchError *RemoteFetchError
	if errors.As(cause, &fetchError) {
		if len(fetchError.Path) == 0 {
			annotated := *fetchError
			annotated.Path = path
			return &annotated
		}
		return fetchError
	}
	return &RemoteFetchError{ContainerID: containerID, Path: path, Err: cause}
}

func asLocalReadError(cause error, path string) error {
	var readError *LocalReadError
	if errors.As(cause, &readError) {
		return readError
	}
	return &LocalReadError{Path: path, Err: cause}
}
