//go:build linux

package serialport

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

type termiosPort struct {
	*os.File
	fd int
}

func openTermios(path string, baud int, readTimeout time.Duration) (Port, error) {
	flag := unix.O_RDWR | unix.O_NOCTTY
	fd, err := unix.Open(path, flag, 0)
	if err != nil {
		return nil, err
	}

	// Best-effort: if anything below fails, close fd.
	ok := false
	defer func() {
		if !ok {
			_ = unix.Close(fd)
		}
	}()

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	spd, err := baudToUnix(baud)
	if err != nil {
		return nil, err
	}

	// Raw-ish mode (minimal line processing) for NMEA.
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	// Pure timed read: return whatever arrived within VTIME, possibly nothing.
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = deciseconds(readTimeout)

	t.Cflag &^= unix.CBAUD
	t.Cflag |= spd
	t.Ispeed = spd
	t.Ospeed = spd

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return nil, err
	}

	f := os.NewFile(uintptr(fd), path)
	if f == nil {
		return nil, fmt.Errorf("os.NewFile failed")
	}
	ok = true
	return &termiosPort{File: f, fd: fd}, nil
}

func (p *termiosPort) ResetInput() error {
	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCIFLUSH)
}

// Flush waits for the output queue to drain (tcdrain).
func (p *termiosPort) Flush() error {
	return unix.IoctlSetInt(p.fd, unix.TCSBRK, 1)
}

// deciseconds converts a read timeout to VTIME units, clamped to [1,255].
func deciseconds(d time.Duration) uint8 {
	ds := (d + 100*time.Millisecond - 1) / (100 * time.Millisecond)
	if ds < 1 {
		return 1
	}
	if ds > 255 {
		return 255
	}
	return uint8(ds)
}

func baudToUnix(baud int) (uint32, error) {
	switch baud {
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 38400:
		return unix.B38400, nil
	case 115200:
		return unix.B115200, nil
	default:
		return 0, fmt.Errorf("%w %d", ErrUnsupportedBaud, baud)
	}
}
