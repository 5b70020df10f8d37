package service

import "context"

// Notice kinds surfaced to the UI layer.
const (
	NoticeSessionRestored = "session_restored"
	NoticeAuthBlocked     = "auth_blocked"
)

// UINotice is a one-shot message for the surrounding UI.
type UINotice struct {
	NoticeID string `json:"noticeId"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// Notifier delivers UI notices out of the engine.
type Notifier interface {
	// PublishNotice publishes a notice for the UI layer to display.
	PublishNotice(ctx context.Context, notice *UINotice) error

	// Close releases any resources held by the notifier
	Close() error
}
