package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"spoadmin/domain/records"
	"spoadmin/domain/requests"
	"spoadmin/logging"
)

// RequestExecutor runs one ad-hoc request and returns the raw JSON response.
type RequestExecutor interface {
	Execute(ctx context.Context, req requests.Request) ([]byte, error)
}

// RequestResponse is the outcome of an ad-hoc request, ready for display.
type RequestResponse struct {
	Description string
	Category    requests.Category
	JSON        string
	Size        int
	Duration    time.Duration
}

// RequestService runs validated ad-hoc requests. Graph calls go to the Graph executor and
// every other variant to the SharePoint REST executor.
type RequestService struct {
	sharePoint RequestExecutor
	graph      RequestExecutor
	logger     *logging.Logger
}

// NewRequestService creates a request service. graph may be nil, which disables Graph calls.
func NewRequestService(sharePoint, graph RequestExecutor) *RequestService {
	return &RequestService{
		sharePoint: sharePoint,
		graph:      graph,
		logger:     logging.Default().WithComponent("request_service"),
	}
}

// Execute runs req and returns its response indented for reading. An empty response body,
// as Graph returns for DELETE, yields empty JSON text.
func (s *RequestService) Execute(ctx context.Context, req requests.Request) (*RequestResponse, error) {
	executor, operation := s.sharePoint, "sharepoint_request"
	if req.Category() == requests.CategoryGraph {
		executor, operation = s.graph, "graph_request"
	}
	if executor == nil {
		return nil, fmt.Errorf("%w: no executor for %s", records.ErrInvalidArgument, req.Describe())
	}

	start := time.Now()
	data, err := executor.Execute(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("Request failed", "request", req.Describe(), "error", err)
		return nil, err
	}
	s.logger.Performance(operation, elapsed, slog.String("request", req.Describe()), slog.Int("bytes", len(data)))

	var pretty bytes.Buffer
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Indent(&pretty, data, "", "  "); err != nil {
			return nil, fmt.Errorf("response is not JSON: %w", err)
		}
	}
	return &RequestResponse{
		Description: req.Describe(),
		Category:    req.Category(),
		JSON:        pretty.String(),
		Size:        len(data),
		Duration:    elapsed,
	}, nil
}
