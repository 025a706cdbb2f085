package chialog

import (
	"context"
	"log/slog"
	"time"
)

// easternTimeHandler rewrites every record's timestamp into a fixed
// location before delegating, so stdout/file logs line up with the rest
// of the fleet regardless of the host's local zone.
type easternTimeHandler struct {
	slog.Handler
	location *time.Location
}

func newEasternTimeHandler(h slog.Handler, loc *time.Location) *easternTimeHandler {
	return &easternTimeHandler{Handler: h, location: loc}
}

func (h *easternTimeHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Time = r.Time.In(h.location)
	return h.Handler.Handle(ctx, r)
}

func (h *easternTimeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &easternTimeHandler{Handler: h.Handler.WithAttrs(attrs), location: h.location}
}

func (h *easternTimeHandler) WithGroup(name string) slog.Handler {
	return &easternTimeHandler{Handler: h.Handler.WithGroup(name), location: h.location}
}
