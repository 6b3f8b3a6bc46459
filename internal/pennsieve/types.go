package pennsieve

import (
	"strings"
	"time"

	"github.com/temirov/sdsaudit/internal/reconcile"
)

const (
	// DefaultBaseURL is the public Pennsieve API endpoint.
	DefaultBaseURL = "https://api.pennsieve.io"
	// DefaultPageSize is the number of children requested per page.
	DefaultPageSize = 100
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 60 * time.Second
	// DefaultRetryCount is the number of retries for transient failures.
	DefaultRetryCount = 3

	collectionPackageTypeConstant = "Collection"
)

// Configuration controls HTTP access to the Pennsieve API.
type Configuration struct {
	BaseURL       string
	PageSize      int
	Timeout       time.Duration
	RetryCount    int
	RetryInterval time.Duration
	UserAgent     string
}

func (configuration Configuration) sanitize() Configuration {
	sanitized := configuration
	sanitized.BaseURL = strings.TrimRight(strings.TrimSpace(configuration.BaseURL), "/")
	if len(sanitized.BaseURL) == 0 {
		sanitized.BaseURL = DefaultBaseURL
	}
	if sanitized.PageSize <= 0 {
		sanitized.PageSize = DefaultPageSize
	}
	if sanitized.Timeout <= 0 {
		sanitized.Timeout = DefaultTimeout
	}
	if sanitized.RetryCount < 0 {
		sanitized.RetryCount = 0
	}
	if sanitized.RetryInterval < 0 {
		sanitized.RetryInterval = 0
	}
	return sanitized
}

// Dataset describes a dataset and its root-level packages.
type Dataset struct {
	ID       string
	Name     string
	Children []reconcile.RemoteEntry
}

type packageNode struct {
	Content  packageContent `json:"content"`
	Children []packageNode  `json:"children"`
}

type packageContent struct {
	ID          string `json:"id"`
	NodeID      string `json:"nodeId"`
	Name        string `json:"name"`
	PackageType string `json:"packageType"`
}

type cognitoConfiguration struct {
	Region    string           `json:"region"`
	TokenPool cognitoTokenPool `json:"tokenPool"`
}

type cognitoTokenPool struct {
	AppClientID string `json:"appClientId"`
}

func (node packageNode) remoteEntry() reconcile.RemoteEntry {
	identifier := node.Content.ID
	if len(identifier) == 0 {
		identifier = node.Content.NodeID
	}

	kind := reconcile.EntryKindLeaf
	if node.Content.PackageType == collectionPackageTypeConstant {
		kind = reconcile.EntryKindCollection
	}

	return reconcile.RemoteEntry{
		Identifier: identifier,
		Name:       node.Content.Name,
		Kind:       kind,
	}
}
