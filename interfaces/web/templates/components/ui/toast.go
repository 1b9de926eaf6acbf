package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

func toastClasses(toastType string) string {
	switch toastType {
	case "success":
		return "border-green-200 bg-green-50 text-green-800"
	case "error":
		return "border-red-200 bg-red-50 text-red-800"
	default:
		return "border-blue-200 bg-blue-50 text-blue-800"
	}
}

// ToastNotification renders a dismissible toast.
func ToastNotification(message, toastType string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="toast rounded border px-4 py-3 shadow %s" role="status" data-toast-type="%s" hx-on:click="this.remove()">%s</div>`,
			toastClasses(toastType), templ.EscapeString(toastType), templ.EscapeString(message))
		return err
	})
}
