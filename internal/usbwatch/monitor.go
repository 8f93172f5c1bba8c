//go:build linux

package usbwatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"golang.org/x/sys/unix"

	"cdjexport/internal/config"
	"cdjexport/internal/logging"
	"cdjexport/internal/preflight"
)

// Handler runs for each newly mounted stick.
type Handler func(ctx context.Context, device string) error

const pollInterval = 250 * time.Millisecond

// Monitor watches for USB sticks appearing at a mount point.
type Monitor struct {
	mountPoint   string
	settle       time.Duration
	mountTimeout time.Duration
	handler      Handler
	logger       *slog.Logger

	// mountID returns an identifier of the filesystem mounted at path and
	// whether path is a mount point at all.
	mountID     func(path string) (uint64, bool)
	lastHandled uint64
}

// NewMonitor builds a Monitor for mountPoint using the watch timings from cfg.
func NewMonitor(cfg *config.Config, mountPoint string, handler Handler, logger *slog.Logger) *Monitor {
	return &Monitor{
		mountPoint:   filepath.Clean(mountPoint),
		settle:       time.Duration(cfg.Watch.SettleSeconds) * time.Second,
		mountTimeout: time.Duration(cfg.Watch.MountTimeoutSeconds) * time.Second,
		handler:      handler,
		logger:       logging.NewComponentLogger(logger, "usb-watch"),
		mountID:      mountID,
	}
}

// Run listens until ctx is cancelled. It fails only when the netlink socket
// cannot be opened.
func (m *Monitor) Run(ctx context.Context) error {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("connect to udev netlink socket: %w", err)
	}
	defer conn.Close()

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())
	defer close(monitorQuit)

	m.logger.Info("usb watch started",
		logging.String(logging.FieldEventType, "usb_watch_started"),
		logging.String("mount_point", m.mountPoint),
	)

	// A stick that is already mounted is exported right away.
	if _, ok := m.mountID(m.mountPoint); ok {
		m.handleEvent(ctx, netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"DEVNAME": "(already mounted)"}})
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("usb watch stopped", logging.String(logging.FieldEventType, "usb_watch_stopped"))
			return nil
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "stick insertion may be missed"),
			)
		}
	}
}

// buildMatcher matches USB block devices being added or removed.
func buildMatcher() netlink.Matcher {
	action := "^(add|remove)$"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"ID_BUS":    "usb",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := extractDeviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	// Device numbers are reused by the next stick in the same port, so the
	// last export is forgotten once the mount point is gone.
	if _, mounted := m.mountID(m.mountPoint); !mounted && m.lastHandled != 0 {
		m.logger.Debug("mount point released", logging.String("device", devname))
		m.lastHandled = 0
	}
	if uevent.Action == netlink.REMOVE {
		return
	}

	m.logger.Info("usb device detected",
		logging.String(logging.FieldEventType, "usb_device_detected"),
		logging.String("device", devname),
		logging.String("label", uevent.Env["ID_FS_LABEL"]),
	)

	id, ok := m.waitForMount(ctx)
	if !ok {
		if ctx.Err() == nil {
			logging.WarnWithContext(m.logger, "mount point did not appear", "usb_mount_timeout",
				logging.String("device", devname),
				logging.String("mount_point", m.mountPoint),
				logging.Duration("timeout", m.mountTimeout),
				logging.String(logging.FieldErrorHint, "mount the stick at the watched path or raise watch.mount_timeout_seconds"),
				logging.String(logging.FieldImpact, "no export for this insertion"),
			)
		}
		return
	}
	if id == m.lastHandled {
		m.logger.Debug("mount already exported", logging.String("device", devname))
		return
	}

	if m.settle > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.settle):
		}
	}

	if r := preflight.CheckDirectoryAccess("Mount point", m.mountPoint); !r.Passed {
		logging.WarnWithContext(m.logger, "mount point not writable", "usb_mount_unwritable",
			logging.String("device", devname),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "remount the stick read-write"),
			logging.String(logging.FieldImpact, "no export for this insertion"),
		)
		return
	}

	m.lastHandled = id
	if m.handler == nil {
		return
	}
	if err := m.handler(ctx, devname); err != nil {
		logging.WarnWithContext(m.logger, "export after insertion failed", "usb_export_failed",
			logging.Error(err),
			logging.String("device", devname),
			logging.String(logging.FieldErrorHint, "check the export log lines above"),
			logging.String(logging.FieldImpact, "playlist not exported to this stick"),
		)
	}
}

// waitForMount polls until the mount point is mounted or the timeout passes.
func (m *Monitor) waitForMount(ctx context.Context) (uint64, bool) {
	deadline := time.Now().Add(m.mountTimeout)
	for {
		if id, ok := m.mountID(m.mountPoint); ok {
			return id, true
		}
		if !time.Now().Before(deadline) {
			return 0, false
		}
		select {
		case <-ctx.Done():
			return 0, false
		case <-time.After(pollInterval):
		}
	}
}

// extractDeviceName gets the device path from a uevent.
func extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}

// mountID reports the device number of the filesystem at path when path is
// a mount point, i.e. lives on a different device than its parent.
func mountID(path string) (uint64, bool) {
	var st, parent unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, false
	}
	if err := unix.Stat(filepath.Dir(path), &parent); err != nil {
		return 0, false
	}
	if st.Dev == parent.Dev {
		return 0, false
	}
	return uint64(st.Dev), true
}
