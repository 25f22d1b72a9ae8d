package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"matchlab/internal/viewmodel"
	"matchlab/views/components"
)

// GamePage renders the full page for one subject: tabs, controls, status,
// board and toast, wired to the subject's event stream.
func GamePage(data viewmodel.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		subject := templ.EscapeString(data.Subject)
		head := `<!DOCTYPE html><html lang="` + templ.EscapeString(data.Lang) + `"><head>` +
			`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">` +
			`<title>` + templ.EscapeString(data.Title) + ` | Matchlab</title>` +
			`<link rel="stylesheet" href="/static/style.css"></head>` +
			`<body><main class="game" data-subject="` + subject + `" data-stream="/play/` + subject + `/stream">`
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if err := components.Tabs(data.Tabs).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<h1 class="title">`+templ.EscapeString(data.Title)+`</h1>`); err != nil {
			return err
		}
		if err := components.StatusFragment(data.Status).Render(ctx, w); err != nil {
			return err
		}
		controls := `<div class="controls">` +
			`<form method="POST" action="/play/` + subject + `/shuffle"><button type="submit">🔀</button></form>` +
			`<form method="POST" action="/play/` + subject + `/reset"><button type="submit">↺</button></form>` +
			`</div>`
		if _, err := io.WriteString(w, controls); err != nil {
			return err
		}
		if err := components.BoardFragment(data.Board).Render(ctx, w); err != nil {
			return err
		}
		if err := components.ToastFragment(data.Toast).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main><script src="/static/app.js" defer></script></body></html>`)
		return err
	})
}
