package notify

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = "/org/freedesktop/Notifications"
	notificationsMethod = "org.freedesktop.Notifications.Notify"
)

// DBusClient defines the D-Bus operations the notifier needs.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/capview/internal/notify DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// Notify calls org.freedesktop.Notifications.Notify and returns the notification id
	Notify(ctx context.Context, appName string, replacesID uint32, summary, body string, hints map[string]dbus.Variant, timeoutMS int32) (uint32, error)
}

// StdDBusClient is the real implementation using godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient creates a real D-Bus client connected to the session bus
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

// Notify sends a desktop notification without an icon or actions
func (c *StdDBusClient) Notify(ctx context.Context, appName string, replacesID uint32, summary, body string, hints map[string]dbus.Variant, timeoutMS int32) (uint32, error) {
	obj := c.conn.Object(notificationsDest, dbus.ObjectPath(notificationsPath))

	var id uint32
	err := obj.CallWithContext(ctx, notificationsMethod, 0,
		appName, replacesID, "", summary, body, []string{}, hints, timeoutMS).Store(&id)
	return id, err
}
