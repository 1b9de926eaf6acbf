package ui

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func statusClasses(statusType string) string {
	switch statusType {
	case "success":
		return "text-green-700"
	case "error":
		return "text-red-700"
	default:
		return "text-slate-600"
	}
}

// StatusLine renders the outcome of the last operation.
func StatusLine(status *StatusView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if status == nil {
			return nil
		}
		h := &htmlWriter{w: w}
		h.printf(`<p id="status" class="text-sm %s">%s</p>`, statusClasses(status.Type), esc(status.Text))
		return h.err
	})
}

// RecordsTable renders the filtered web parts with their editable fields.
func RecordsTable(view RecordsTableView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<section id="records" hx-get="/records?q=%s" hx-trigger="sse:records-updated" hx-swap="outerHTML">`, esc(view.Keyword))
		if h.err != nil {
			return h.err
		}
		if err := StatusLine(view.Status).Render(ctx, w); err != nil {
			return err
		}
		h.printf(`<div class="flex items-center justify-between py-2"><span class="text-sm text-slate-600">%d web part(s), <span id="dirty-count">%d</span> unsaved</span>`,
			view.Total, view.DirtyCount)
		disabled := ""
		if view.Committing || view.DirtyCount == 0 {
			disabled = " disabled"
		}
		h.printf(`<button class="rounded bg-blue-600 px-3 py-1 text-white" hx-post="/records/commit" hx-target="#commit-log"%s>Save changes</button></div>`, disabled)
		h.printf(`<table class="w-full text-sm"><thead><tr><th>Web part</th><th>Page</th><th>Fields</th><th></th></tr></thead><tbody>`)
		if h.err != nil {
			return h.err
		}
		for _, row := range view.Rows {
			if err := RecordRow(row).Render(ctx, w); err != nil {
				return err
			}
		}
		if len(view.Rows) == 0 {
			h.printf(`<tr><td colspan="4" class="py-4 text-center text-slate-500">No web parts loaded.</td></tr>`)
		}
		h.printf(`</tbody></table></section>`)
		return h.err
	})
}

// RecordRow renders one web part. Each field posts its edits back individually.
func RecordRow(row RecordRowView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		rowClass := ""
		if row.Dirty {
			rowClass = "bg-amber-50"
		}
		h.printf(`<tr id="row-%s" class="%s" data-dirty="%t">`, esc(rowID(row.Key)), rowClass, row.Dirty)
		h.printf(`<td><div class="font-medium">%s</div><div class="text-xs text-slate-500">%s</div></td>`, esc(row.Title), esc(row.Type))
		h.printf(`<td><a class="text-blue-700 underline" href="%s" target="_blank">%s</a></td><td>`, esc(row.PageURL), esc(row.PageName))
		for _, f := range row.Fields {
			h.printf(`<form hx-post="/records/field" hx-target="#row-%s" hx-swap="outerHTML" class="mb-2">`, esc(rowID(row.Key)))
			h.printf(`<input type="hidden" name="key" value="%s"><input type="hidden" name="field" value="%s">`, esc(row.Key), esc(f.Name))
			h.printf(`<label class="block text-xs text-slate-500">%s</label>`, esc(f.Name))
			h.printf(`<textarea name="value" rows="3" class="w-full font-mono text-xs" hx-trigger="change">%s</textarea></form>`, esc(f.Value))
		}
		h.printf(`</td><td>`)
		if row.Dirty {
			h.printf(`<button class="text-xs text-slate-600 underline" hx-post="/records/revert" hx-vals='{"key":"%s"}' hx-target="#row-%s" hx-swap="outerHTML">Revert</button>`,
				esc(row.Key), esc(rowID(row.Key)))
		}
		h.printf(`</td></tr>`)
		return h.err
	})
}

// rowID turns a record key into a safe element id.
func rowID(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// SiteList renders site search results as checkboxes for fetching pages.
func SiteList(sites []SiteView, status StatusView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<form id="sites" hx-post="/pages/fetch" hx-target="#pages">`)
		h.printf(`<p class="text-sm %s">%s</p><ul>`, statusClasses(status.Type), esc(status.Text))
		for _, s := range sites {
			h.printf(`<li><label><input type="checkbox" name="site_id" value="%s"> %s <span class="text-xs text-slate-500">%s</span></label></li>`,
				esc(s.ID), esc(s.DisplayName), esc(s.URL))
		}
		h.printf(`</ul><button class="rounded bg-slate-700 px-3 py-1 text-white">Load pages</button></form>`)
		return h.err
	})
}

// PageSelect renders the fetched pages as a select that loads records.
func PageSelect(pages []PageOptionView, status StatusView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<form id="pages" hx-post="/pages/select" hx-target="#records" hx-swap="outerHTML" hx-trigger="change">`)
		h.printf(`<p class="text-sm %s">%s</p><select name="page_id" class="w-full">`, statusClasses(status.Type), esc(status.Text))
		for _, p := range pages {
			h.printf(`<option value="%s">%s</option>`, esc(p.ID), esc(p.Name))
		}
		h.printf(`</select></form>`)
		return h.err
	})
}
