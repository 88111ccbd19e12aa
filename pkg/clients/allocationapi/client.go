package allocationapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/allocgrid/internal/config"
	"github.com/mamadbah2/allocgrid/internal/domain/models"
)

// ErrUpstream wraps every non-2xx answer of the allocation service.
var ErrUpstream = errors.New("allocation api error")

// Client exposes the allocation service operations used by the application.
type Client interface {
	FetchAllocationData(ctx context.Context) (*models.DatasetPayload, error)
	SaveAllocations(ctx context.Context, entries []models.PersistEntry) error
	RunSolver(ctx context.Context) error
	ValidateAllocation(ctx context.Context) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	paths      config.AllocationAPIConfig
}

// NewClient builds an allocation API client using the provided configuration values.
func NewClient(cfg config.AllocationAPIConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &APIClient{
		httpClient: restyClient,
		paths:      cfg,
	}
}

// apiError is the error body the allocation service returns, when it returns one.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) text() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// FetchAllocationData performs the bulk read of records, channel columns and status hint.
func (c *APIClient) FetchAllocationData(ctx context.Context) (*models.DatasetPayload, error) {
	result := new(models.DatasetPayload)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr).
		Get(c.paths.DataPath)
	if err != nil {
		return nil, fmt.Errorf("fetch allocation data: %w", err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return nil, fmt.Errorf("fetch allocation data: %w", err)
	}
	if result.ChannelColumns == nil {
		result.ChannelColumns = []string{}
	}
	if result.AllocationData == nil {
		result.AllocationData = []models.AllocationRecord{}
	}

	return result, nil
}

// SaveAllocations sends the bulk write body: one {ean, channels} entry per record.
func (c *APIClient) SaveAllocations(ctx context.Context, entries []models.PersistEntry) error {
	if entries == nil {
		entries = []models.PersistEntry{}
	}
	return c.post(ctx, c.paths.SavePath, entries, "save allocations")
}

// RunSolver asks the service to compute an allocation. The caller reloads afterwards.
func (c *APIClient) RunSolver(ctx context.Context) error {
	return c.post(ctx, c.paths.SolvePath, nil, "run solver")
}

// ValidateAllocation marks the current allocation as validated upstream.
func (c *APIClient) ValidateAllocation(ctx context.Context) error {
	return c.post(ctx, c.paths.ValidatePath, nil, "validate allocation")
}

func (c *APIClient) post(ctx context.Context, path string, body any, op string) error {
	apiErr := new(apiError)

	req := c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func checkResponse(resp *resty.Response, apiErr *apiError) error {
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}

	message := apiErr.text()
	if message == "" {
		message = strings.TrimSpace(resp.String())
	}
	return fmt.Errorf("%w: code=%d, message=%s", ErrUpstream, resp.StatusCode(), message)
}
