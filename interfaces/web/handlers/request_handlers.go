package handlers

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"spoadmin/application"
	"spoadmin/domain/records"
	"spoadmin/domain/requests"
	"spoadmin/interfaces/web/presenters"
	"spoadmin/interfaces/web/templates/components/ui"
	"spoadmin/logging"
)

// RequestHandlers serves the ad-hoc SharePoint and Graph request console.
type RequestHandlers struct {
	service   *application.RequestService
	presenter presenters.RecordPresenterInterface
	logger    *logging.Logger
}

// NewRequestHandlers creates request handlers.
func NewRequestHandlers(service *application.RequestService, presenter presenters.RecordPresenterInterface) *RequestHandlers {
	return &RequestHandlers{
		service:   service,
		presenter: presenter,
		logger:    logging.Default().WithComponent("request_handlers"),
	}
}

// Execute runs the request described by the form.
func (h *RequestHandlers) Execute(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.service.Execute(r.Context(), req)
	if err != nil {
		h.logger.WithRequest(r.Context()).Warn("Ad-hoc request failed", "request", req.Describe(), "error", err)
		writeError(w, r, fmt.Errorf("%s: %w", req.Describe(), err))
		return
	}
	view := h.presenter.ToRequestResult(resp)
	if WantsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	RenderResponse(r.Context(), w, r, ui.RequestResult(view))
}

// requestFromForm builds the request variant named by the kind form value.
func requestFromForm(r *http.Request) (requests.Request, error) {
	list := formValue(r, "list")
	id, err := formInt(r, "id")
	kind := formValue(r, "kind")
	if err != nil && kind != "list_by_id" {
		return nil, err
	}

	switch kind {
	case "web":
		return requests.WebInfo{}, nil
	case "subwebs":
		return requests.Subwebs{}, nil
	case "lists":
		return requests.WebLists{}, nil
	case "role_definitions":
		return requests.RoleDefinitions{}, nil
	case "current_user":
		return requests.CurrentUser{}, nil
	case "site_users":
		return requests.SiteUsers{}, nil
	case "site_groups":
		return requests.SiteGroups{}, nil
	case "list_by_title":
		return requests.NewListByTitle(list)
	case "list_by_id":
		return requests.NewListByID(formValue(r, "id"))
	case "list_fields":
		return requests.NewListFields(list)
	case "list_views":
		return requests.NewListViews(list)
	case "list_items":
		top, err := formInt(r, "top")
		if err != nil {
			return nil, err
		}
		return requests.NewListItems(list, top, formValue(r, "filter"), formValue(r, "orderby"), formBool(r, "asc"))
	case "item_by_id":
		return requests.NewItemByID(list, id)
	case "item_update":
		fields, err := itemFields(r.FormValue("data"))
		if err != nil {
			return nil, err
		}
		return requests.NewItemUpdate(list, id, fields)
	case "user_by_id":
		return requests.NewUserByID(id)
	case "user_by_email":
		return requests.NewUserByEmail(formValue(r, "email"))
	case "group_by_id":
		return requests.NewGroupByID(id)
	case "graph":
		return requests.NewGraphCall(formValue(r, "method"), formValue(r, "url"), r.FormValue("body"))
	default:
		return nil, fmt.Errorf("%w: unknown request kind %q", records.ErrInvalidArgument, kind)
	}
}

// itemFields flattens a JSON object of item values to edit text. Strings keep their
// text; other values keep their JSON literal so coercion restores the type.
func itemFields(data string) (map[string]string, error) {
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: item data must be a JSON object", records.ErrInvalidArgument)
	}
	doc := gjson.Parse(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: item data must be a JSON object", records.ErrInvalidArgument)
	}
	fields := make(map[string]string)
	doc.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			fields[key.String()] = value.String()
		} else {
			fields[key.String()] = value.Raw
		}
		return true
	})
	return fields, nil
}
