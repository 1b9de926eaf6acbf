package ui

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// CommitLog renders the per-record outcome of one commit run.
func CommitLog(view CommitLogView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		summaryType := "success"
		if view.HasFailure {
			summaryType = "error"
		}
		h.printf(`<div id="commit-log" data-run-id="%s"><ul class="text-sm">`, esc(view.RunID))
		for _, e := range view.Entries {
			cls := "text-green-700"
			if !e.Success {
				cls = "text-red-700"
			}
			h.printf(`<li class="%s">%s</li>`, cls, esc(e.Message))
		}
		h.printf(`</ul><p class="font-medium %s">%s</p></div>`, statusClasses(summaryType), esc(view.Summary))
		return h.err
	})
}

// CommitHistory renders the journal of past commit runs.
func CommitHistory(runs []CommitRunView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<table id="commit-history" class="w-full text-sm"><thead><tr><th>Run</th><th>Started</th><th>Duration</th><th>Saved</th><th>Failed</th></tr></thead><tbody>`)
		for _, r := range runs {
			h.printf(`<tr><td><a class="text-blue-700 underline" hx-get="/commits/%s" hx-target="#commit-log" hx-swap="outerHTML">%s</a></td><td>%s</td><td>%s</td><td>%d</td><td>%d</td></tr>`,
				esc(r.RunID), esc(r.RunID), esc(r.StartedAt), esc(r.Duration), r.Succeeded, r.Failed)
		}
		if len(runs) == 0 {
			h.printf(`<tr><td colspan="5" class="py-4 text-center text-slate-500">No commits yet.</td></tr>`)
		}
		h.printf(`</tbody></table>`)
		return h.err
	})
}

// RequestResult renders the response of an ad-hoc SharePoint request.
func RequestResult(view RequestResultView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<div id="request-result"><p class="font-mono text-xs text-slate-600">%s <span>(%s, %d bytes, %s)</span></p>`,
			esc(view.Description), esc(view.Category), view.Size, esc(view.Duration))
		h.printf(`<pre class="overflow-auto rounded bg-slate-900 p-3 text-xs text-slate-100">%s</pre></div>`, esc(view.JSON))
		return h.err
	})
}
