//go:build !linux

package usbwatch

import (
	"context"
	"errors"
	"log/slog"

	"cdjexport/internal/config"
)

// Handler runs for each newly mounted stick.
type Handler func(ctx context.Context, device string) error

// Monitor is unavailable outside Linux.
type Monitor struct{}

// NewMonitor returns a Monitor whose Run always fails.
func NewMonitor(*config.Config, string, Handler, *slog.Logger) *Monitor {
	return &Monitor{}
}

// Run reports that USB watching needs udev.
func (m *Monitor) Run(context.Context) error {
	return errors.New("usb watch requires linux udev")
}
