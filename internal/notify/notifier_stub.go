//go:build !linux
// +build !linux

package notify

import (
	"context"

	"go.uber.org/zap"
)

// DesktopNotifier stub for non-Linux platforms
type DesktopNotifier struct {
	logger *zap.Logger
}

// NewDesktopNotifier creates a notifier that only logs
func NewDesktopNotifier(logger *zap.Logger) *DesktopNotifier {
	return &DesktopNotifier{logger: logger}
}

// Notify logs the notification; desktop notifications are only supported on Linux
func (n *DesktopNotifier) Notify(ctx context.Context, summary, body string) error {
	n.logger.Debug("Desktop notifications unavailable",
		zap.String("summary", summary),
		zap.String("body", body))
	return nil
}

// Close is a no-op on non-Linux platforms
func (n *DesktopNotifier) Close() error {
	return nil
}
