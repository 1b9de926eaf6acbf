// Package requests defines the closed set of ad-hoc SharePoint REST and Microsoft Graph calls
// the console can run.
// Each variant carries exactly the parameters it needs and is validated by its constructor.
package requests

import (
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"spoadmin/domain/jsonedit"
	"spoadmin/domain/records"
)

// Category groups request variants for display.
type Category string

const (
	CategoryWeb   Category = "web"
	CategoryList  Category = "lists"
	CategoryItem  Category = "items"
	CategoryField Category = "fields"
	CategoryUser  Category = "users"
	CategoryGroup Category = "groups"
	CategoryGraph Category = "graph"
)

// Request is implemented only by the variants in this package.
type Request interface {
	Category() Category
	Describe() string
	sealed()
}

type (
	// WebInfo reads the current web.
	WebInfo struct{}
	// Subwebs lists the child webs.
	Subwebs struct{}
	// WebLists lists every list of the web.
	WebLists struct{}
	// RoleDefinitions lists permission levels.
	RoleDefinitions struct{}

	// ListByTitle reads one list by title.
	ListByTitle struct{ Title string }
	// ListByID reads one list by GUID.
	ListByID struct{ ID string }
	// ListFields lists the fields of a list.
	ListFields struct{ ListTitle string }
	// ListViews lists the views of a list.
	ListViews struct{ ListTitle string }

	// ListItems queries the items of a list.
	ListItems struct {
		ListTitle string
		Top       int
		Filter    string
		OrderBy   string
		Ascending bool
	}
	// ItemByID reads one item.
	ItemByID struct {
		ListTitle string
		ID        int
	}
	// ItemUpdate merges Data into one item.
	ItemUpdate struct {
		ListTitle string
		ID        int
		Data      map[string]any
	}

	// CurrentUser reads the calling user.
	CurrentUser struct{}
	// SiteUsers lists site users.
	SiteUsers struct{}
	// UserByID reads a site user by numeric id.
	UserByID struct{ ID int }
	// UserByEmail reads a site user by e-mail.
	UserByEmail struct{ Email string }

	// SiteGroups lists site groups.
	SiteGroups struct{}
	// GroupByID reads a site group.
	GroupByID struct{ ID int }

	// GraphCall is a raw Microsoft Graph request. Path is relative to the Graph base URL
	// and Body is JSON text, empty for GET and DELETE.
	GraphCall struct {
		Method string
		Path   string
		Body   string
	}
)

func (WebInfo) Category() Category         { return CategoryWeb }
func (Subwebs) Category() Category         { return CategoryWeb }
func (WebLists) Category() Category        { return CategoryWeb }
func (RoleDefinitions) Category() Category { return CategoryWeb }
func (ListByTitle) Category() Category     { return CategoryList }
func (ListByID) Category() Category        { return CategoryList }
func (ListFields) Category() Category      { return CategoryField }
func (ListViews) Category() Category       { return CategoryList }
func (ListItems) Category() Category       { return CategoryItem }
func (ItemByID) Category() Category        { return CategoryItem }
func (ItemUpdate) Category() Category      { return CategoryItem }
func (CurrentUser) Category() Category     { return CategoryUser }
func (SiteUsers) Category() Category       { return CategoryUser }
func (UserByID) Category() Category        { return CategoryUser }
func (UserByEmail) Category() Category     { return CategoryUser }
func (SiteGroups) Category() Category      { return CategoryGroup }
func (GroupByID) Category() Category       { return CategoryGroup }
func (GraphCall) Category() Category       { return CategoryGraph }

func (WebInfo) Describe() string         { return "sp.web.get()" }
func (Subwebs) Describe() string         { return "sp.web.webs.get()" }
func (WebLists) Describe() string        { return "sp.web.lists.get()" }
func (RoleDefinitions) Describe() string { return "sp.web.roleDefinitions.get()" }
func (r ListByTitle) Describe() string   { return fmt.Sprintf("sp.web.lists.getByTitle(%q)", r.Title) }
func (r ListByID) Describe() string      { return fmt.Sprintf("sp.web.lists.getById(%q)", r.ID) }
func (r ListFields) Describe() string    { return fmt.Sprintf("sp.web.lists.getByTitle(%q).fields.get()", r.ListTitle) }
func (r ListViews) Describe() string     { return fmt.Sprintf("sp.web.lists.getByTitle(%q).views.get()", r.ListTitle) }
func (r ItemByID) Describe() string      { return fmt.Sprintf("sp.web.lists.getByTitle(%q).items.getById(%d)", r.ListTitle, r.ID) }
func (r ItemUpdate) Describe() string    { return fmt.Sprintf("sp.web.lists.getByTitle(%q).items.getById(%d).update()", r.ListTitle, r.ID) }
func (CurrentUser) Describe() string     { return "sp.web.currentUser.get()" }
func (SiteUsers) Describe() string       { return "sp.web.siteUsers.get()" }
func (r UserByID) Describe() string      { return fmt.Sprintf("sp.web.siteUsers.getById(%d)", r.ID) }
func (r UserByEmail) Describe() string   { return fmt.Sprintf("sp.web.siteUsers.getByEmail(%q)", r.Email) }
func (SiteGroups) Describe() string      { return "sp.web.siteGroups.get()" }
func (r GroupByID) Describe() string     { return fmt.Sprintf("sp.web.siteGroups.getById(%d)", r.ID) }
func (r GraphCall) Describe() string     { return "graph " + r.Method + " " + r.Path }

func (r ListItems) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sp.web.lists.getByTitle(%q).items", r.ListTitle)
	if r.Filter != "" {
		fmt.Fprintf(&b, ".filter(%q)", r.Filter)
	}
	if r.OrderBy != "" {
		fmt.Fprintf(&b, ".orderBy(%q, %t)", r.OrderBy, r.Ascending)
	}
	if r.Top > 0 {
		fmt.Fprintf(&b, ".top(%d)", r.Top)
	}
	b.WriteString(".get()")
	return b.String()
}

func (WebInfo) sealed()         {}
func (Subwebs) sealed()         {}
func (WebLists) sealed()        {}
func (RoleDefinitions) sealed() {}
func (ListByTitle) sealed()     {}
func (ListByID) sealed()        {}
func (ListFields) sealed()      {}
func (ListViews) sealed()       {}
func (ListItems) sealed()       {}
func (ItemByID) sealed()        {}
func (ItemUpdate) sealed()      {}
func (CurrentUser) sealed()     {}
func (SiteUsers) sealed()       {}
func (UserByID) sealed()        {}
func (UserByEmail) sealed()     {}
func (SiteGroups) sealed()      {}
func (GroupByID) sealed()       {}
func (GraphCall) sealed()       {}

func missing(name string) error {
	return fmt.Errorf("%w: %s is required", records.ErrInvalidArgument, name)
}

// NewListByTitle validates a list title lookup.
func NewListByTitle(title string) (ListByTitle, error) {
	if strings.TrimSpace(title) == "" {
		return ListByTitle{}, missing("list title")
	}
	return ListByTitle{Title: title}, nil
}

// NewListByID validates a list GUID lookup.
func NewListByID(id string) (ListByID, error) {
	id = strings.Trim(strings.TrimSpace(id), "{}")
	if id == "" {
		return ListByID{}, missing("list id")
	}
	return ListByID{ID: id}, nil
}

// NewListFields validates a list fields query.
func NewListFields(listTitle string) (ListFields, error) {
	if strings.TrimSpace(listTitle) == "" {
		return ListFields{}, missing("list title")
	}
	return ListFields{ListTitle: listTitle}, nil
}

// NewListViews validates a list views query.
func NewListViews(listTitle string) (ListViews, error) {
	if strings.TrimSpace(listTitle) == "" {
		return ListViews{}, missing("list title")
	}
	return ListViews{ListTitle: listTitle}, nil
}

// NewListItems validates an items query. top <= 0 leaves the server default.
func NewListItems(listTitle string, top int, filter, orderBy string, ascending bool) (ListItems, error) {
	if strings.TrimSpace(listTitle) == "" {
		return ListItems{}, missing("list title")
	}
	if top < 0 {
		return ListItems{}, fmt.Errorf("%w: top must not be negative", records.ErrInvalidArgument)
	}
	return ListItems{ListTitle: listTitle, Top: top, Filter: filter, OrderBy: orderBy, Ascending: ascending}, nil
}

// NewItemByID validates a single item lookup.
func NewItemByID(listTitle string, id int) (ItemByID, error) {
	if strings.TrimSpace(listTitle) == "" {
		return ItemByID{}, missing("list title")
	}
	if id <= 0 {
		return ItemByID{}, missing("item id")
	}
	return ItemByID{ListTitle: listTitle, ID: id}, nil
}

// NewItemUpdate validates an item update. Edited text values are coerced to their JSON
// types and the read-only Id/ID keys are dropped.
func NewItemUpdate(listTitle string, id int, fields map[string]string) (ItemUpdate, error) {
	if strings.TrimSpace(listTitle) == "" {
		return ItemUpdate{}, missing("list title")
	}
	if id <= 0 {
		return ItemUpdate{}, missing("item id")
	}
	data := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "Id" || k == "ID" {
			continue
		}
		data[k] = jsonedit.Coerce(v)
	}
	if len(data) == 0 {
		return ItemUpdate{}, missing("item data")
	}
	return ItemUpdate{ListTitle: listTitle, ID: id, Data: data}, nil
}

// NewUserByID validates a user lookup.
func NewUserByID(id int) (UserByID, error) {
	if id <= 0 {
		return UserByID{}, missing("user id")
	}
	return UserByID{ID: id}, nil
}

// NewUserByEmail validates a user lookup by e-mail.
func NewUserByEmail(email string) (UserByEmail, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return UserByEmail{}, fmt.Errorf("%w: invalid e-mail %q", records.ErrInvalidArgument, email)
	}
	return UserByEmail{Email: addr.Address}, nil
}

// NewGroupByID validates a group lookup.
func NewGroupByID(id int) (GroupByID, error) {
	if id <= 0 {
		return GroupByID{}, missing("group id")
	}
	return GroupByID{ID: id}, nil
}

// GraphHost is the only host an absolute Graph URL may name.
const GraphHost = "graph.microsoft.com"

var graphMethods = map[string]bool{
	http.MethodGet:    false,
	http.MethodPost:   true,
	http.MethodPatch:  true,
	http.MethodDelete: false,
}

// NewGraphCall validates a raw Graph request. An absolute https://graph.microsoft.com/<version>/...
// URL is reduced to its path below the version segment, so the token is never sent elsewhere.
// POST and PATCH bodies must be JSON and default to {}; GET and DELETE drop the body.
func NewGraphCall(method, target, body string) (GraphCall, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	hasBody, ok := graphMethods[method]
	if !ok {
		return GraphCall{}, fmt.Errorf("%w: unsupported Graph method %q", records.ErrInvalidArgument, method)
	}

	path, err := graphPath(strings.TrimSpace(target))
	if err != nil {
		return GraphCall{}, err
	}

	body = strings.TrimSpace(body)
	switch {
	case !hasBody:
		body = ""
	case body == "":
		body = "{}"
	case !gjson.Valid(body):
		return GraphCall{}, fmt.Errorf("%w: Graph request body must be valid JSON", records.ErrInvalidArgument)
	}
	return GraphCall{Method: method, Path: path, Body: body}, nil
}

func graphPath(target string) (string, error) {
	if target == "" {
		return "", missing("Graph URL")
	}
	if strings.HasPrefix(target, "/") {
		return target, nil
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme != "https" || !strings.EqualFold(u.Host, GraphHost) {
		return "", fmt.Errorf("%w: Graph URL must be a path or an https://%s URL", records.ErrInvalidArgument, GraphHost)
	}
	// drop the version segment; the client's base URL carries it
	_, rest, _ := strings.Cut(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	path := "/" + rest
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, nil
}
