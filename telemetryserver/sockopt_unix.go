//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package telemetryserver

import "syscall"

// setReuseAddrPort sets SO_REUSEADDR and SO_REUSEPORT on fd so a restarted
// process can rebind the same address while the outgoing process is still
// draining its in-flight connections.
func setReuseAddrPort(fd int) error {
	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		return err
	}
	return syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_REUSEPORT, 1)
}
