// Package components renders the game fragments swapped in by the stream.
package components

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"matchlab/internal/viewmodel"
)

// BoardFragment renders the label pool and the drop targets.
func BoardFragment(data viewmodel.Board) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		class := "board"
		if data.Complete {
			class += " is-complete"
		}
		p.printf(`<section id="board" class="%s" data-subject="%s">`, class, esc(data.Subject))

		p.printf(`<div class="pool" data-pool>`)
		for _, token := range data.Pool {
			p.printf(`<span class="token" draggable="true" data-token="%s">%s</span>`, esc(token.Value), esc(token.Value))
		}
		p.printf(`</div>`)

		p.printf(`<ul class="targets">`)
		for _, target := range data.Targets {
			p.printf(`<li class="target is-%s" data-target="%s">`, esc(target.Status), esc(target.Key))
			p.printf(`<span class="target-label">%s</span>`, esc(target.Label))
			if target.Placed != "" {
				p.printf(`<span class="slot is-filled">%s</span>`, esc(target.Placed))
			} else {
				p.printf(`<span class="slot">%s</span>`, esc(target.EmptyPrompt))
			}
			p.printf(`</li>`)
		}
		p.printf(`</ul></section>`)
		return p.err
	})
}

// StatusFragment renders progress, the running clock and the best time.
func StatusFragment(data viewmodel.Status) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<div id="status" class="status" data-subject="%s">`, esc(data.Subject))
		p.printf(`<span class="progress" data-correct="%d" data-total="%d">%s</span>`, data.Correct, data.Total, esc(data.Progress))
		timerClass := "timer"
		if data.Running {
			timerClass += " is-running"
		}
		p.printf(`<span class="%s">%s</span>`, timerClass, esc(data.Timer))
		p.printf(`<span class="best">🏆 %s</span>`, esc(data.Best))
		p.printf(`</div>`)
		return p.err
	})
}

// ToastFragment renders the completion notification, hidden when empty.
func ToastFragment(data viewmodel.Toast) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		if data.Message == "" {
			p.printf(`<div id="toast" class="toast" role="status" aria-live="polite"></div>`)
			return p.err
		}
		p.printf(`<div id="toast" class="toast is-visible" role="status" aria-live="polite">%s</div>`, esc(data.Message))
		return p.err
	})
}

// Tabs renders the subject tab bar.
func Tabs(tabs []viewmodel.Tab) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<nav class="tabs"><ul>`)
		for _, tab := range tabs {
			class := ""
			if tab.Active {
				class = ` class="is-active"`
			}
			p.printf(`<li%s><a href="/play/%s">%s</a></li>`, class, esc(tab.Subject), esc(tab.Title))
		}
		p.printf(`</ul></nav>`)
		return p.err
	})
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// printer keeps the first write error so components can return it once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	if len(args) == 0 {
		_, p.err = io.WriteString(p.w, format)
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Render writes a component to a string, for SSE payloads and tests.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
