package presenters

import (
	"maps"
	"slices"
	"time"

	"spoadmin/application"
	"spoadmin/domain/contracts"
	"spoadmin/domain/jsonedit"
	"spoadmin/domain/records"
	"spoadmin/interfaces/web/templates/components/ui"
)

// fieldOrder puts the web part fields first; any other field follows alphabetically.
var fieldOrder = []string{records.FieldProperties, records.FieldServerProcessedContent, records.FieldInnerHTML}

// RecordPresenter turns records, commit results and request responses into view models.
type RecordPresenter struct{}

// NewRecordPresenter creates a new record presenter.
func NewRecordPresenter() *RecordPresenter {
	return &RecordPresenter{}
}

// ToRecordRow builds one table row.
func (p *RecordPresenter) ToRecordRow(rec records.Record, dirty bool) ui.RecordRowView {
	row := ui.RecordRowView{
		Key:      rec.Key.String(),
		Title:    rec.DisplayName(),
		Type:     rec.Meta.Type,
		PageName: rec.Meta.PageName,
		PageURL:  rec.Meta.PageURL,
		Dirty:    dirty,
	}
	for _, name := range orderedFields(rec.Fields) {
		value := rec.Fields[name]
		row.Fields = append(row.Fields, ui.FieldView{Name: name, Value: value, Structured: jsonedit.IsStructured(value)})
	}
	return row
}

func orderedFields(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for _, name := range fieldOrder {
		if _, ok := fields[name]; ok {
			names = append(names, name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if !slices.Contains(fieldOrder, name) {
			names = append(names, name)
		}
	}
	return names
}

// ToRecordsTable builds the table for the records matching keyword.
func (p *RecordPresenter) ToRecordsTable(store *application.RecordStore, keyword string, status *application.StatusMessage) ui.RecordsTableView {
	view := ui.RecordsTableView{
		Keyword:    keyword,
		DirtyCount: store.DirtyCount(),
		Committing: store.Committing(),
		Rows:       []ui.RecordRowView{},
	}
	for _, key := range store.Filter(keyword) {
		rec, ok := store.Get(key)
		if !ok {
			continue
		}
		view.Rows = append(view.Rows, p.ToRecordRow(rec, store.IsDirty(key)))
	}
	view.Total = len(view.Rows)
	if status != nil {
		view.Status = &ui.StatusView{Type: status.Type, Text: status.Text}
	}
	return view
}

// ToDirtyRows lists the pending change set.
func (p *RecordPresenter) ToDirtyRows(dirty []records.Record) []ui.RecordRowView {
	rows := make([]ui.RecordRowView, 0, len(dirty))
	for _, rec := range dirty {
		rows = append(rows, p.ToRecordRow(rec, true))
	}
	return rows
}

// ToCommitLog builds the per-record outcome of a commit.
func (p *RecordPresenter) ToCommitLog(result records.CommitResult) ui.CommitLogView {
	view := ui.CommitLogView{
		RunID:      result.RunID,
		Summary:    result.Summary(),
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		StartedAt:  formatTime(result.StartedAt),
		Duration:   formatDuration(result.StartedAt, result.FinishedAt),
		Entries:    make([]ui.CommitEntryView, 0, len(result.Entries)),
		HasFailure: result.Failed > 0,
	}
	for _, e := range result.Entries {
		view.Entries = append(view.Entries, ui.CommitEntryView{
			Key:     e.Key.String(),
			Title:   e.Title,
			Success: e.Success,
			Message: e.Message,
		})
	}
	return view
}

// ToCommitHistory builds the journal table.
func (p *RecordPresenter) ToCommitHistory(runs []contracts.CommitRunSummary) []ui.CommitRunView {
	out := make([]ui.CommitRunView, 0, len(runs))
	for _, r := range runs {
		out = append(out, ui.CommitRunView{
			RunID:     r.RunID,
			StartedAt: formatTime(r.StartedAt),
			Duration:  formatDuration(r.StartedAt, r.FinishedAt),
			Succeeded: r.Succeeded,
			Failed:    r.Failed,
		})
	}
	return out
}

// ToSites builds the site search results.
func (p *RecordPresenter) ToSites(sites []contracts.Site) []ui.SiteView {
	out := make([]ui.SiteView, 0, len(sites))
	for _, s := range sites {
		name := s.DisplayName
		if name == "" {
			name = s.URL
		}
		out = append(out, ui.SiteView{ID: s.ID, URL: s.URL, DisplayName: name})
	}
	return out
}

// ToPageOptions builds the page selector.
func (p *RecordPresenter) ToPageOptions(pages []application.PageOption) []ui.PageOptionView {
	out := make([]ui.PageOptionView, 0, len(pages))
	for _, pg := range pages {
		name := pg.Name
		if name == "" {
			name = pg.URL
		}
		out = append(out, ui.PageOptionView{ID: pg.ID, Name: name, URL: pg.URL})
	}
	return out
}

// ToRequestResult builds the ad-hoc request output.
func (p *RecordPresenter) ToRequestResult(resp *application.RequestResponse) ui.RequestResultView {
	return ui.RequestResultView{
		Description: resp.Description,
		Category:    string(resp.Category),
		JSON:        resp.JSON,
		Size:        resp.Size,
		Duration:    resp.Duration.Round(time.Millisecond).String(),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return ""
	}
	return end.Sub(start).Round(time.Millisecond).String()
}
