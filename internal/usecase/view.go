// File: internal/usecase/view.go
package usecase

import "telegram-shop-bot/internal/domain/ports/adapter"

// View is what a workflow step asks the transport to show: text, an optional
// inline keyboard and an optional document to attach afterwards. Usecases
// build views; the Telegram adapter decides whether a view edits the
// originating message or is sent fresh.
type View struct {
	Text     string
	Rows     [][]adapter.InlineButton
	Document *Document
}

// Document is a file artifact delivered alongside a view. Delivery is
// best-effort: a failed upload degrades to a notice, never to a failed
// workflow step.
type Document struct {
	Name    string
	Caption string
	Data    []byte
}
