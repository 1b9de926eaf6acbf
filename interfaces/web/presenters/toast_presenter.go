package presenters

import (
	"context"
	"strings"

	"github.com/a-h/templ"

	"spoadmin/domain/records"
	"spoadmin/interfaces/web/templates/components/ui"
)

// ToastPresenter handles toast and live fragment formatting for SSE.
type ToastPresenter struct {
	records *RecordPresenter
}

// NewToastPresenter creates a new toast presenter.
func NewToastPresenter() *ToastPresenter {
	return &ToastPresenter{records: NewRecordPresenter()}
}

// FormatToastNotification renders a toast notification.
func (p *ToastPresenter) FormatToastNotification(message, toastType string) (string, error) {
	return renderToString(ui.ToastNotification(message, toastType))
}

// FormatCommitLog renders the commit log fragment pushed to every client.
func (p *ToastPresenter) FormatCommitLog(result records.CommitResult) (string, error) {
	return renderToString(ui.CommitLog(p.records.ToCommitLog(result)))
}

// renderToString renders a component into a single-line string. SSE data lines cannot contain newlines.
func renderToString(component templ.Component) (string, error) {
	var buf strings.Builder
	if err := component.Render(context.Background(), &buf); err != nil {
		return "", err
	}
	return strings.ReplaceAll(buf.String(), "\n", "&#10;"), nil
}
