package pennsieve

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/imroc/req/v3"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/temirov/sdsaudit/internal/reconcile"
)

const (
	datasetPathConstant             = "/datasets/{id}"
	packagePathConstant             = "/packages/{id}"
	identifierPathParameterConstant = "id"
	limitQueryParameterConstant     = "limit"
	offsetQueryParameterConstant    = "offset"
	datasetOperationConstant        = "get dataset"
	packageOperationConstant        = "list package children"
	pageFetchedMessageConstant      = "fetched package page"
	logFieldContainerIDConstant     = "container_id"
	logFieldOffsetConstant          = "offset"
	logFieldChildCountConstant      = "children"
)

var sdsFolderNames = []string{"primary", "source", "derivative", "code", "docs", "protocol", "stimulus", "analysis"}

// SDSFolderNames returns the well-known top-level SDS folder names in
// reconciliation order.
func SDSFolderNames() []string {
	return append([]string(nil), sdsFolderNames...)
}

// Client lists Pennsieve datasets and packages with an authenticated session.
type Client struct {
	httpClient *req.Client
	pageSize   int
	logger     *zap.Logger
}

// NewClient constructs a Client that authenticates with accessToken.
func NewClient(configuration Configuration, accessToken string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	sanitized := configuration.sanitize()

	httpClient := newHTTPClient(sanitized).
		SetCommonBearerAuthToken(strings.TrimSpace(accessToken))

	return &Client{
		httpClient: httpClient,
		pageSize:   sanitized.PageSize,
		logger:     logger,
	}
}

func newHTTPClient(configuration Configuration) *req.Client {
	httpClient := req.C().
		SetBaseURL(configuration.BaseURL).
		SetTimeout(configuration.Timeout).
		SetCommonRetryCount(configuration.RetryCount).
		SetCommonRetryFixedInterval(configuration.RetryInterval).
		SetCommonRetryCondition(func(response *req.Response, requestError error) bool {
			if requestError != nil {
				return true
			}
			return response.StatusCode == http.StatusTooManyRequests || response.StatusCode >= http.StatusInternalServerError
		}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if len(configuration.UserAgent) > 0 {
		httpClient.SetUserAgent(configuration.UserAgent)
	}

	return httpClient
}

// GetDataset fetches a dataset and its root-level packages.
func (client *Client) GetDataset(executionContext context.Context, datasetID string) (Dataset, error) {
	var node packageNode
	response, requestError := client.httpClient.R().
		SetContext(executionContext).
		SetPathParam(identifierPathParameterConstant, datasetID).
		SetSuccessResult(&node).
		Get(datasetPathConstant)
	if responseError := handleResponse(response, requestError, datasetOperationConstant); responseError != nil {
		return Dataset{}, &reconcile.RemoteFetchError{ContainerID: datasetID, Err: responseError}
	}

	return Dataset{
		ID:       lo.CoalesceOrEmpty(node.Content.ID, datasetID),
		Name:     node.Content.Name,
		Children: lo.Map(node.Children, func(child packageNode, _ int) reconcile.RemoteEntry { return child.remoteEntry() }),
	}, nil
}

// ResolveTopLevelContainers maps each of the requested folder names to the
// identifier of the dataset's root collection with that name. Names without
// a matching collection are absent from the result.
func (client *Client) ResolveTopLevelContainers(executionContext context.Context, datasetID string, names []string) (map[string]string, error) {
	dataset, datasetError := client.GetDataset(executionContext, datasetID)
	if datasetError != nil {
		return nil, datasetError
	}
	return topLevelContainers(dataset.Children, names), nil
}

func topLevelContainers(children []reconcile.RemoteEntry, names []string) map[string]string {
	containers := make(map[string]string)
	for _, child := range children {
		if !child.IsCollection() || !lo.Contains(names, child.Name) {
			continue
		}
		if _, alreadyResolved := containers[child.Name]; alreadyResolved {
			continue
		}
		containers[child.Name] = child.Identifier
	}
	return containers
}

// ListChildren returns every child of the package, following pages until
// the API returns a short page or stops yielding new children.
func (client *Client) ListChildren(executionContext context.Context, containerID string) ([]reconcile.RemoteEntry, error) {
	var entries []reconcile.RemoteEntry
	seenIdentifiers := mapset.NewThreadUnsafeSet[string]()

	for offset := 0; ; offset += client.pageSize {
		var node packageNode
		response, requestError := client.httpClient.R().
			SetContext(executionContext).
			SetPathParam(identifierPathParameterConstant, containerID).
			SetQueryParam(limitQueryParameterConstant, strconv.Itoa(client.pageSize)).
			SetQueryParam(offsetQueryParameterConstant, strconv.Itoa(offset)).
			SetSuccessResult(&node).
			Get(packagePathConstant)
		if responseError := handleResponse(response, requestError, packageOperationConstant); responseError != nil {
			return nil, &reconcile.RemoteFetchError{ContainerID: containerID, Err: responseError}
		}

		client.logger.Debug(
			pageFetchedMessageConstant,
			zap.String(logFieldContainerIDConstant, containerID),
			zap.Int(logFieldOffsetConstant, offset),
			zap.Int(logFieldChildCountConstant, len(node.Children)),
		)

		added := 0
		for _, child := range node.Children {
			entry := child.remoteEntry()
			if !seenIdentifiers.Add(entry.Identifier) {
				continue
			}
			entries = append(entries, entry)
			added++
		}

		// A server that ignores paging repeats or overfills pages.
		if added == 0 || len(node.Children) != client.pageSize {
			break
		}
	}

	return entries, nil
}
