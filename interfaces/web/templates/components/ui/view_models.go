package ui

// FieldView is one editable field of a record row.
type FieldView struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Structured bool   `json:"structured"`
}

// RecordRowView is one web part in the records table.
type RecordRowView struct {
	Key      string      `json:"key"`
	Title    string      `json:"title"`
	Type     string      `json:"type"`
	PageName string      `json:"pageName"`
	PageURL  string      `json:"pageUrl"`
	Dirty    bool        `json:"dirty"`
	Fields   []FieldView `json:"fields"`
}

// RecordsTableView is the filtered records table.
type RecordsTableView struct {
	Keyword    string          `json:"keyword"`
	Rows       []RecordRowView `json:"rows"`
	Total      int             `json:"total"`
	DirtyCount int             `json:"dirtyCount"`
	Committing bool            `json:"committing"`
	Status     *StatusView     `json:"status,omitempty"`
}

// StatusView is the outcome line shown above the table.
type StatusView struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SiteView is one site search result.
type SiteView struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	DisplayName string `json:"displayName"`
}

// PageOptionView is one selectable page.
type PageOptionView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CommitEntryView is one line of a commit log.
type CommitEntryView struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CommitLogView is the outcome of one commit run.
type CommitLogView struct {
	RunID      string            `json:"runId"`
	Summary    string            `json:"summary"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	StartedAt  string            `json:"startedAt"`
	Duration   string            `json:"duration"`
	Entries    []CommitEntryView `json:"entries"`
	HasFailure bool              `json:"hasFailure"`
}

// CommitRunView is one row of the commit history.
type CommitRunView struct {
	RunID     string `json:"runId"`
	StartedAt string `json:"startedAt"`
	Duration  string `json:"duration"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// RequestResultView is the formatted response of an ad-hoc request.
type RequestResultView struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	JSON        string `json:"json"`
	Size        int    `json:"size"`
	Duration    string `json:"duration"`
}
