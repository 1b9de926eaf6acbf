package presenters

import (
	"spoadmin/application"
	"spoadmin/domain/contracts"
	"spoadmin/domain/records"
	"spoadmin/interfaces/web/templates/components/ui"
)

// RecordPresenterInterface defines the contract for record presentation logic.
type RecordPresenterInterface interface {
	ToRecordRow(rec records.Record, dirty bool) ui.RecordRowView
	ToRecordsTable(store *application.RecordStore, keyword string, status *application.StatusMessage) ui.RecordsTableView
	ToDirtyRows(dirty []records.Record) []ui.RecordRowView
	ToCommitLog(result records.CommitResult) ui.CommitLogView
	ToCommitHistory(runs []contracts.CommitRunSummary) []ui.CommitRunView
	ToSites(sites []contracts.Site) []ui.SiteView
	ToPageOptions(pages []application.PageOption) []ui.PageOptionView
	ToRequestResult(resp *application.RequestResponse) ui.RequestResultView
}

// Ensure RecordPresenter implements the interface.
var _ RecordPresenterInterface = (*RecordPresenter)(nil)
