package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"spoadmin/application"
	"spoadmin/domain/contracts"
	"spoadmin/domain/records"
	"spoadmin/interfaces/web/presenters"
	"spoadmin/interfaces/web/templates/components/core"
	"spoadmin/interfaces/web/templates/components/ui"
	"spoadmin/logging"
)

const defaultHistoryLimit = 50

// RecordHandlers serves the web part editing console.
type RecordHandlers struct {
	service   *application.WebPartService
	journal   contracts.CommitJournalRepository
	presenter presenters.RecordPresenterInterface
	logger    *logging.Logger
}

// NewRecordHandlers creates record handlers.
func NewRecordHandlers(
	service *application.WebPartService,
	journal contracts.CommitJournalRepository,
	presenter presenters.RecordPresenterInterface,
) *RecordHandlers {
	return &RecordHandlers{
		service:   service,
		journal:   journal,
		presenter: presenter,
		logger:    logging.Default().WithComponent("record_handlers"),
	}
}

type sitesResponse struct {
	Sites  []ui.SiteView `json:"sites"`
	Status ui.StatusView `json:"status"`
}

type pagesResponse struct {
	Pages  []ui.PageOptionView `json:"pages"`
	Status ui.StatusView       `json:"status"`
}

func statusView(msg application.StatusMessage) ui.StatusView {
	return ui.StatusView{Type: msg.Type, Text: msg.Text}
}

// Home renders the console with the requested tab.
func (h *RecordHandlers) Home(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	var body = core.WebPartsPanel(ui.RecordsTable(h.presenter.ToRecordsTable(h.service.Store(), "", nil)))
	switch tab {
	case core.TabRequests:
		body = core.RequestsPanel()
	case core.TabHistory:
		body = core.HistoryPanel()
	default:
		tab = core.TabWebParts
	}
	RenderResponse(r.Context(), w, r, core.Page("SharePoint web part editor", tab, body))
}

// Sites searches sites.
func (h *RecordHandlers) Sites(w http.ResponseWriter, r *http.Request) {
	sites, msg, err := h.service.LoadSites(r.Context(), formValue(r, "search"))
	if err != nil && WantsJSON(r) {
		writeError(w, r, err)
		return
	}
	views := h.presenter.ToSites(sites)
	if WantsJSON(r) {
		writeJSON(w, http.StatusOK, sitesResponse{Sites: views, Status: statusView(msg)})
		return
	}
	RenderResponse(r.Context(), w, r, ui.SiteList(views, statusView(msg)))
}

// FetchPages fetches every web part of the selected sites and returns the page options.
func (h *RecordHandlers) FetchPages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	pages, msg, err := h.service.FetchPages(r.Context(), r.Form["site_id"])
	if err != nil && WantsJSON(r) {
		writeError(w, r, err)
		return
	}
	if err != nil {
		// keep offering what was fetched before
		pages = h.service.PageOptions()
	}
	views := h.presenter.ToPageOptions(pages)
	if WantsJSON(r) {
		writeJSON(w, http.StatusOK, pagesResponse{Pages: views, Status: statusView(msg)})
		return
	}
	RenderResponse(r.Context(), w, r, ui.PageSelect(views, statusView(msg)))
}

// SelectPage loads one page, or all pages, into the editor.
func (h *RecordHandlers) SelectPage(w http.ResponseWriter, r *http.Request) {
	_, msg, err := h.service.SelectPage(formValue(r, "page_id"))
	if err != nil && WantsJSON(r) {
		writeError(w, r, err)
		return
	}
	h.renderTable(w, r, "", &msg)
}

// Records renders the records matching the q keyword.
func (h *RecordHandlers) Records(w http.ResponseWriter, r *http.Request) {
	h.renderTable(w, r, formValue(r, "q"), nil)
}

func (h *RecordHandlers) renderTable(w http.ResponseWriter, r *http.Request, keyword string, msg *application.StatusMessage) {
	view := h.presenter.ToRecordsTable(h.service.Store(), keyword, msg)
	if WantsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	RenderResponse(r.Context(), w, r, ui.RecordsTable(view))
}

func (h *RecordHandlers) renderRow(w http.ResponseWriter, r *http.Request, key records.Key) {
	store := h.service.Store()
	rec, ok := store.Get(key)
	if !ok {
		writeError(w, r, records.ErrRecordNotFound)
		return
	}
	row := h.presenter.ToRecordRow(rec, store.IsDirty(key))
	if WantsJSON(r) {
		writeJSON(w, http.StatusOK, row)
		return
	}
	RenderResponse(r.Context(), w, r, ui.RecordRow(row))
}

// SetField replaces the text of one field.
func (h *RecordHandlers) SetField(w http.ResponseWriter, r *http.Request) {
	key, err := formKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.service.Store().SetField(key, formValue(r, "field"), r.FormValue("value")); err != nil {
		writeError(w, r, err)
		return
	}
	h.renderRow(w, r, key)
}

// SetPath sets or, with op=delete, removes one path inside a structured field.
func (h *RecordHandlers) SetPath(w http.ResponseWriter, r *http.Request) {
	key, err := formKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	store := h.service.Store()
	field, path := formValue(r, "field"), formValue(r, "path")
	if formValue(r, "op") == "delete" {
		_, err = store.DeleteFieldPath(key, field, path)
	} else {
		_, err = store.SetFieldPath(key, field, path, r.FormValue("value"))
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.renderRow(w, r, key)
}

// Revert restores a record to its loaded baseline.
func (h *RecordHandlers) Revert(w http.ResponseWriter, r *http.Request) {
	key, err := formKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.Store().Revert(key); err != nil {
		writeError(w, r, err)
		return
	}
	h.renderRow(w, r, key)
}

// Replace runs a literal find/replace over the records matching q.
func (h *RecordHandlers) Replace(w http.ResponseWriter, r *http.Request) {
	keyword := formValue(r, "q")
	_, msg, err := h.service.Replace(keyword, r.FormValue("from"), r.FormValue("to"))
	if err != nil && WantsJSON(r) {
		writeError(w, r, err)
		return
	}
	h.renderTable(w, r, keyword, &msg)
}

// Dirty lists the records with unsaved changes.
func (h *RecordHandlers) Dirty(w http.ResponseWriter, r *http.Request) {
	store := h.service.Store()
	rows := h.presenter.ToDirtyRows(store.GetDirtyRecords())
	view := ui.RecordsTableView{Rows: rows, Total: len(rows), DirtyCount: len(rows), Committing: store.Committing()}
	if WantsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	RenderResponse(r.Context(), w, r, ui.RecordsTable(view))
}

// Commit saves every dirty record. The run continues if the client goes away.
func (h *RecordHandlers) Commit(w http.ResponseWriter, r *http.Request) {
	result, _, err := h.service.Commit(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := h.presenter.ToCommitLog(*result)
	if WantsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	RenderResponse(r.Context(), w, r, ui.CommitLog(view))
}

// Commits lists past commit runs, newest first.
func (h *RecordHandlers) Commits(w http.ResponseWriter, r *http.Request) {
	limit, err := formInt(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	runs, err := h.journal.ListCommitRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithRequest(r.Context()).Error("Failed to list commit runs", "error", err)
		writeError(w, r, err)
		return
	}
	views := h.presenter.ToCommitHistory(runs)
	if WantsJSON(r) {
		writeJSON(w, http.StatusOK, views)
		return
	}
	RenderResponse(r.Context(), w, r, ui.CommitHistory(views))
}

// CommitRun shows the per-record log of one past run.
func (h *RecordHandlers) CommitRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	result, err := h.journal.GetCommitRun(r.Context(), runID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := h.presenter.ToCommitLog(*result)
	if WantsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	RenderResponse(r.Context(), w, r, ui.CommitLog(view))
}
