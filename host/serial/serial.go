// Package serial opens the bench link to the controller's SCI port.
package serial

import (
	"io"
	"time"
)

// Port is a bench link. The native implementation wraps tarm/serial;
// tests use in-memory pipes.
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread and unwritten data
	Flush() error
}

// DefaultBaud is the SCI-A rate the firmware programs at boot.
const DefaultBaud = 115200

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	Baud int

	// ReadTimeout bounds a single Read; 0 blocks
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration the firmware expects.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}
