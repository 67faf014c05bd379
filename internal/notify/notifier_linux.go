//go:build linux

package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	appName   = "capview"
	timeoutMS = 5000
)

// DesktopNotifier posts notifications to the freedesktop notification daemon.
// Consecutive notifications replace each other instead of stacking.
type DesktopNotifier struct {
	logger *zap.Logger
	dial   func() (DBusClient, error)

	mu     sync.Mutex
	conn   DBusClient
	lastID uint32
}

// NewDesktopNotifier creates a notifier that connects to the session bus on first use
func NewDesktopNotifier(logger *zap.Logger) *DesktopNotifier {
	return &DesktopNotifier{
		logger: logger,
		dial: func() (DBusClient, error) {
			return NewStdDBusClient()
		},
	}
}

// Notify shows summary and body as a desktop notification
func (n *DesktopNotifier) Notify(ctx context.Context, summary, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		conn, err := n.dial()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		n.conn = conn
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(1)),
	}
	id, err := n.conn.Notify(ctx, appName, n.lastID, summary, body, hints, timeoutMS)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	n.lastID = id

	n.logger.Debug("Notification sent",
		zap.String("summary", summary),
		zap.Uint32("id", id))
	return nil
}

// Close releases the D-Bus connection if one was opened
func (n *DesktopNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}
