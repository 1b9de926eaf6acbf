package graph

import (
	"context"
	"fmt"

	"spoadmin/domain/records"
	"spoadmin/domain/requests"
)

// Execute sends an ad-hoc Graph call with the client's credential. Only requests.GraphCall
// is accepted; the SharePoint variants belong to the REST client.
func (c *Client) Execute(ctx context.Context, req requests.Request) ([]byte, error) {
	call, ok := req.(requests.GraphCall)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a Graph request", records.ErrInvalidArgument, req.Describe())
	}

	var body []byte
	if call.Body != "" {
		body = []byte(call.Body)
	}
	data, err := c.do(ctx, call.Method, call.Path, body)
	if err != nil {
		return nil, err
	}
	c.logger.Graph("Ad-hoc Graph call", "method", call.Method, "path", call.Path, "bytes", len(data))
	return data, nil
}
