package presenters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spoadmin/application"
	"spoadmin/domain/contracts"
	"spoadmin/domain/records"
	"spoadmin/test/helpers"
)

func TestRecordPresenter_ToRecordRow_FieldOrder(t *testing.T) {
	// Arrange
	presenter := NewRecordPresenter()
	rec := helpers.NewTestData().WebPart("home", "a", `{"x":1}`)
	rec.Fields["zeta"] = "plain"
	rec.Fields["alpha"] = "[1]"

	// Act
	row := presenter.ToRecordRow(rec, true)

	// Assert
	names := make([]string, 0, len(row.Fields))
	for _, f := range row.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{records.FieldProperties, records.FieldServerProcessedContent, records.FieldInnerHTML, "alpha", "zeta"}, names)
	assert.True(t, row.Fields[0].Structured)
	assert.False(t, row.Fields[4].Structured)
	assert.True(t, row.Dirty)
	assert.Equal(t, "site|home|a", row.Key)
	assert.Equal(t, "Web part a", row.Title)
}

func TestRecordPresenter_ToRecordsTable(t *testing.T) {
	// Arrange
	td := helpers.NewTestData()
	a := td.WebPart("home", "a", `{"link":"https://news"}`)
	b := td.WebPart("home", "b", `{"link":"https://team"}`)
	store := application.NewRecordStore(nil)
	require.NoError(t, store.Load([]records.Record{a, b}))
	_, err := store.SetField(b.Key, records.FieldProperties, `{"link":"https://team2"}`)
	require.NoError(t, err)
	presenter := NewRecordPresenter()

	// Act
	view := presenter.ToRecordsTable(store, "team", &application.StatusMessage{Type: application.StatusSuccess, Text: "ok"})

	// Assert
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "site|home|b", view.Rows[0].Key)
	assert.True(t, view.Rows[0].Dirty)
	assert.Equal(t, 1, view.Total)
	assert.Equal(t, 1, view.DirtyCount)
	require.NotNil(t, view.Status)
	assert.Equal(t, "ok", view.Status.Text)
}

func TestRecordPresenter_ToCommitLog(t *testing.T) {
	presenter := NewRecordPresenter()
	started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	result := records.CommitResult{
		RunID: "run",
		Entries: []records.CommitEntry{
			{Key: records.Key{ContainerID: "s", ParentID: "p", RecordID: "1"}, Title: "Hero", Success: true, Message: "saved"},
			{Key: records.Key{ContainerID: "s", ParentID: "p", RecordID: "2"}, Title: "Text", Message: "failed"},
		},
		Succeeded:  1,
		Failed:     1,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
	}

	view := presenter.ToCommitLog(result)

	assert.Equal(t, "Saved 1 record(s), 1 failed.", view.Summary)
	assert.True(t, view.HasFailure)
	assert.Equal(t, "1.5s", view.Duration)
	require.Len(t, view.Entries, 2)
	assert.Equal(t, "s|p|2", view.Entries[1].Key)
	assert.False(t, view.Entries[1].Success)
}

func TestRecordPresenter_ToSitesAndPages_FallBackToURL(t *testing.T) {
	presenter := NewRecordPresenter()

	sites := presenter.ToSites([]contracts.Site{{ID: "1", URL: "https://contoso/sites/a"}})
	pages := presenter.ToPageOptions([]application.PageOption{{ID: "p", URL: "https://contoso/a.aspx"}})

	assert.Equal(t, "https://contoso/sites/a", sites[0].DisplayName)
	assert.Equal(t, "https://contoso/a.aspx", pages[0].Name)
}

func TestToastPresenter_EscapesMessage(t *testing.T) {
	presenter := NewToastPresenter()

	html, err := presenter.FormatToastNotification(`<script>alert(1)</script>`, "error")

	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `data-toast-type="error"`)
}

func TestToastPresenter_FormatCommitLog_SingleLine(t *testing.T) {
	presenter := NewToastPresenter()

	html, err := presenter.FormatCommitLog(records.CommitResult{
		RunID:     "run",
		Entries:   []records.CommitEntry{{Success: true, Message: "line one\nline two"}},
		Succeeded: 1,
	})

	require.NoError(t, err)
	assert.NotContains(t, html, "\n")
	assert.Contains(t, html, `data-run-id="run"`)
}
