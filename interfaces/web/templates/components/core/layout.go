package core

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Tab names of the console.
const (
	TabWebParts = "webparts"
	TabRequests = "requests"
	TabHistory  = "history"
)

var tabs = []struct{ name, label string }{
	{TabWebParts, "Web parts"},
	{TabRequests, "SharePoint and Graph requests"},
	{TabHistory, "Commit history"},
}

// Page renders the full HTML document around body with the SSE connection wired in.
func Page(title, activeTab string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title>`+
			`<script src="https://unpkg.com/htmx.org@2.0.4"></script><script src="https://unpkg.com/htmx-ext-sse@2.2.2/sse.js"></script>`+
			`<script src="https://cdn.tailwindcss.com"></script></head>`+
			`<body class="bg-slate-50" hx-ext="sse" sse-connect="/events"><header class="border-b bg-white"><nav class="flex gap-2 px-4" role="tablist">`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		for _, t := range tabs {
			selected, class := "false", "text-slate-600 hover:text-slate-900"
			if t.name == activeTab {
				selected, class = "true", "bg-blue-50 text-blue-700 border-b-2 border-blue-600 font-medium"
			}
			if _, err := fmt.Fprintf(w, `<a href="/?tab=%s" role="tab" aria-selected="%s" class="px-3 py-2 %s">%s</a>`,
				t.name, selected, class, t.label); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</nav></header><div id="toasts" class="fixed right-4 top-4 space-y-2" sse-swap="toast" hx-swap="afterbegin"></div><main class="p-4">`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// WebPartsPanel is the editing workflow: search sites, pick pages, edit and save.
func WebPartsPanel(records templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="grid grid-cols-4 gap-4"><aside class="space-y-4">`+
			`<form hx-get="/sites" hx-target="#sites" hx-swap="outerHTML"><input name="search" placeholder="Search sites" class="w-full"><button>Search</button></form>`+
			`<form id="sites"></form><form id="pages"></form>`+
			`<form hx-post="/records/replace" hx-target="#records" hx-swap="outerHTML" class="space-y-1">`+
			`<input name="q" placeholder="Filter" class="w-full" hx-get="/records" hx-trigger="keyup changed delay:300ms" hx-target="#records" hx-swap="outerHTML">`+
			`<input name="from" placeholder="Find" class="w-full"><input name="to" placeholder="Replace with" class="w-full"><button>Replace</button></form>`+
			`</aside><div class="col-span-3">`); err != nil {
			return err
		}
		if err := records.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<div id="commit-log" sse-swap="commit-log"></div></div></div>`)
		return err
	})
}

// RequestsPanel holds the ad-hoc SharePoint REST form and the raw Graph call form.
func RequestsPanel() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<form hx-post="/requests" hx-target="#request-result" hx-swap="outerHTML" class="space-y-2">`+
			`<select name="kind">`+
			`<option value="web">Web</option><option value="subwebs">Subwebs</option><option value="lists">Lists</option>`+
			`<option value="role_definitions">Role definitions</option><option value="list_by_title">List by title</option>`+
			`<option value="list_by_id">List by id</option><option value="list_fields">List fields</option>`+
			`<option value="list_views">List views</option><option value="list_items">List items</option>`+
			`<option value="item_by_id">Item by id</option><option value="item_update">Update item</option>`+
			`<option value="current_user">Current user</option><option value="site_users">Site users</option>`+
			`<option value="user_by_id">User by id</option><option value="user_by_email">User by e-mail</option>`+
			`<option value="site_groups">Site groups</option><option value="group_by_id">Group by id</option></select>`+
			`<input name="list" placeholder="List title"><input name="id" placeholder="Id"><input name="email" placeholder="E-mail">`+
			`<input name="filter" placeholder="$filter"><input name="orderby" placeholder="$orderby"><label><input type="checkbox" name="asc" value="true" checked> ascending</label><input name="top" placeholder="$top">`+
			`<textarea name="data" placeholder='{"Title":"New title"}'></textarea><button>Run</button></form>`+
			`<form hx-post="/requests" hx-target="#request-result" hx-swap="outerHTML" class="space-y-2"><input type="hidden" name="kind" value="graph">`+
			`<select name="method"><option>GET</option><option>POST</option><option>PATCH</option><option>DELETE</option></select>`+
			`<input name="url" placeholder="/sites?search=* or https://graph.microsoft.com/v1.0/..." class="w-full">`+
			`<textarea name="body" placeholder='{"displayName":"..."}'></textarea><button>Send</button></form>`+
			`<div id="request-result"></div>`)
		return err
	})
}

// HistoryPanel loads the commit journal.
func HistoryPanel() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div hx-get="/commits" hx-trigger="load, sse:commit-log" hx-swap="innerHTML"></div><div id="commit-log"></div>`)
		return err
	})
}
