package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the emitting component under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Email records a user email under the key "email".
func Email(email string) slog.Attr {
	return slog.String("email", email)
}

// EventType records a webhook event type under the key "event_type".
func EventType(t string) slog.Attr {
	return slog.String("event_type", t)
}
