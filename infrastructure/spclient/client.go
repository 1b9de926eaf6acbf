package spclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/koltyakov/gosip/api"

	"spoadmin/domain/requests"
	"spoadmin/logging"
)

// Client executes request variants through the Gosip fluent API.
type Client struct {
	sp     *api.SP
	logger *logging.Logger
}

// NewClient wraps an authenticated Gosip API root.
func NewClient(sp *api.SP) *Client {
	return &Client{
		sp:     sp,
		logger: logging.Default().WithComponent("sharepoint_client"),
	}
}

// normalizedResponse is implemented by every Gosip response type (pointer receiver).
type normalizedResponse[T any] interface {
	*T
	Normalized() []byte
}

func normalize[T any, P normalizedResponse[T]](resp T, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return P(&resp).Normalized(), nil
}

// Execute dispatches on the request variant. The switch is exhaustive over package requests.
func (c *Client) Execute(ctx context.Context, req requests.Request) ([]byte, error) {
	web := c.sp.Conf(&api.RequestConfig{Context: ctx}).Web()
	c.logger.SharePoint("Executing request", "category", string(req.Category()), "request", req.Describe())

	var (
		data []byte
		err  error
	)
	switch r := req.(type) {
	case requests.WebInfo:
		data, err = normalize(web.Get())
	case requests.Subwebs:
		data, err = normalize(web.Webs().Get())
	case requests.WebLists:
		data, err = normalize(web.Lists().Get())
	case requests.RoleDefinitions:
		defs, getErr := web.RoleDefinitions().Get()
		if getErr != nil {
			err = getErr
			break
		}
		data, err = json.Marshal(defs)
	case requests.ListByTitle:
		data, err = normalize(web.Lists().GetByTitle(r.Title).Get())
	case requests.ListByID:
		data, err = normalize(web.Lists().GetByID(r.ID).Get())
	case requests.ListFields:
		data, err = normalize(web.Lists().GetByTitle(r.ListTitle).Fields().Get())
	case requests.ListViews:
		data, err = normalize(web.Lists().GetByTitle(r.ListTitle).Views().Get())
	case requests.ListItems:
		items := web.Lists().GetByTitle(r.ListTitle).Items()
		if r.Top > 0 {
			items = items.Top(r.Top)
		}
		if r.Filter != "" {
			items = items.Filter(r.Filter)
		}
		if r.OrderBy != "" {
			items = items.OrderBy(r.OrderBy, r.Ascending)
		}
		data, err = normalize(items.Get())
	case requests.ItemByID:
		data, err = normalize(web.Lists().GetByTitle(r.ListTitle).Items().GetByID(r.ID).Get())
	case requests.ItemUpdate:
		body, marshalErr := json.Marshal(r.Data)
		if marshalErr != nil {
			return nil, fmt.Errorf("encode item update: %w", marshalErr)
		}
		data, err = normalize(web.Lists().GetByTitle(r.ListTitle).Items().GetByID(r.ID).Update(body))
	case requests.CurrentUser:
		data, err = normalize(web.CurrentUser().Get())
	case requests.SiteUsers:
		data, err = normalize(web.SiteUsers().Get())
	case requests.UserByID:
		data, err = normalize(web.SiteUsers().GetByID(r.ID).Get())
	case requests.UserByEmail:
		data, err = normalize(web.SiteUsers().GetByEmail(r.Email).Get())
	case requests.SiteGroups:
		data, err = normalize(web.SiteGroups().Get())
	case requests.GroupByID:
		data, err = normalize(web.SiteGroups().GetByID(r.ID).Get())
	default:
		return nil, fmt.Errorf("unsupported request %T", req)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Describe(), err)
	}
	return data, nil
}
