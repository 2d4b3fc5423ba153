// Package logger builds the application slog.Logger and provides
// attribute helpers so log keys stay consistent across components.
package logger
