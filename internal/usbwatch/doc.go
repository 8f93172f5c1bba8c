// Package usbwatch runs an export whenever a USB stick is plugged in.
//
// The monitor listens for udev "add" events on USB block devices over a
// netlink socket, waits until the configured mount point is mounted and
// writable, lets it settle, and calls the handler once per mount. It needs
// no udev rules and no root privileges beyond reading the netlink socket.
package usbwatch
