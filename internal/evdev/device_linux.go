//go:build linux

package evdev

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"github.com/frudas24/touchpad/internal/gesture"
	"github.com/frudas24/touchpad/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const pollTimeoutMs = 100

// absInfo mirrors struct input_absinfo.
type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// ioctl request numbers for the evdev interface.
func eviocgabs(axis uint) uint {
	return 2<<30 | uint(unsafe.Sizeof(absInfo{}))<<16 | 'E'<<8 | (0x40 + axis)
}

const eviocgrab = 1<<30 | 4<<16 | 'E'<<8 | 0x90

// Device reads touch samples from an event device node.
type Device struct {
	fd      int
	path    string
	grabbed bool
	tracker *Tracker
	log     *zap.SugaredLogger
}

// Open opens path, reads its axis ranges, and optionally grabs it so other
// readers stop receiving its events.
func Open(path string, grab bool, log *zap.SugaredLogger) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	d := &Device{fd: fd, path: path, log: logging.OrNop(log)}

	xr, err := d.absRange(AbsX)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	yr, err := d.absRange(AbsY)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	d.tracker = NewTracker(xr, yr)

	if grab {
		if err := unix.IoctlSetInt(fd, eviocgrab, 1); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("grab %s: %w", path, err)
		}
		d.grabbed = true
	}
	d.log.Infow("input device opened", "path", path, "x", xr, "y", yr, "grabbed", d.grabbed)
	return d, nil
}

// Run feeds samples into sink until ctx is done or the device fails.
func (d *Device) Run(ctx context.Context, sink gesture.SampleSink) error {
	size := RecordSize()
	buf := make([]byte, size*64)
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := unix.Poll(fds, pollTimeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll %s: %w", d.path, err)
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return fmt.Errorf("device %s disconnected", d.path)
		}

		read, err := unix.Read(d.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("read %s: %w", d.path, err)
		}
		records, err := ParseRecords(buf[:read-read%size], size)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if sample, ok := d.tracker.Process(rec); ok {
				sink.Feed(sample)
			}
		}
	}
}

// Close releases the grab and closes the device.
func (d *Device) Close() error {
	if d.grabbed {
		_ = unix.IoctlSetInt(d.fd, eviocgrab, 0)
		d.grabbed = false
	}
	return unix.Close(d.fd)
}

// absRange queries the range of one absolute axis.
func (d *Device) absRange(axis uint) (AbsRange, error) {
	var info absInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), uintptr(eviocgabs(axis)), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return AbsRange{}, fmt.Errorf("query axis %d of %s: %w", axis, d.path, errno)
	}
	return AbsRange{Min: info.Minimum, Max: info.Maximum}, nil
}
