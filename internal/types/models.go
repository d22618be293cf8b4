package types

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// DeviceType is the transport kind reported by the backend for a device.
type DeviceType string

const (
	DeviceLocal  DeviceType = "local"
	DeviceUSB    DeviceType = "usb"
	DeviceRemote DeviceType = "remote"
	DeviceTCP    DeviceType = "tcp" // legacy
)

type Device struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type DeviceType `json:"type"`
	Icon string     `json:"icon,omitempty"`
}

// Host returns the host:port address used to reach a remote device.
func (d Device) Host() string {
	if strings.Contains(d.ID, "@") {
		return HostFromID(d.ID)
	}
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// ParseDevice reconstructs the minimal Device for an id given on the command
// line. Ids of the form "remote@host:port" are remote devices.
func ParseDevice(id string) Device {
	d := Device{ID: id, Name: id, Type: DeviceLocal}
	switch {
	case strings.HasPrefix(id, "remote@"), strings.HasPrefix(id, "socket@"):
		d.Type = DeviceRemote
		d.Name = HostFromID(id)
	case id == "tcp":
		d.Type = DeviceTCP
	case id != "local":
		d.Type = DeviceUSB
	}
	return d
}

type App struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	PID        int    `json:"pid"`
	LargeIcon  string `json:"largeIcon,omitempty"`
	SmallIcon  string `json:"smallIcon,omitempty"`
}

func (a App) Running() bool { return a.PID != 0 }

type Process struct {
	Name      string `json:"name"`
	PID       int    `json:"pid"`
	LargeIcon string `json:"largeIcon,omitempty"`
	SmallIcon string `json:"smallIcon,omitempty"`
}

func (p Process) Running() bool { return p.PID != 0 }

// SessionArgs is an ordered instrumentation tool invocation.
type SessionArgs []string

// Equal reports token-sequence equality.
func (a SessionArgs) Equal(other SessionArgs) bool {
	return slices.Equal(a, other)
}

func (a SessionArgs) Clone() SessionArgs {
	if a == nil {
		return nil
	}
	return slices.Clone(a)
}

// Value returns the token following the first occurrence of flag.
func (a SessionArgs) Value(flag string) (string, bool) {
	i := slices.Index(a, flag)
	if i < 0 || i+1 >= len(a) {
		return "", false
	}
	return a[i+1], true
}

func (a SessionArgs) String() string {
	return strings.Join(a, " ")
}

// DeviceFlags returns the flag pair addressing dev. Remote devices are reached
// by host address only when remote mode is enabled.
func DeviceFlags(dev Device, enableRemote bool) SessionArgs {
	if dev.Type == DeviceRemote && enableRemote {
		return SessionArgs{"-H", dev.Host()}
	}
	return SessionArgs{"--device", dev.ID}
}

// KillArgs is the frida-kill vector for pid on dev.
func KillArgs(dev Device, pid int, enableRemote bool) SessionArgs {
	return append(DeviceFlags(dev, enableRemote), strconv.Itoa(pid))
}

// SessionRecord is one launched session in the history log.
type SessionRecord struct {
	ID        SessionID   `json:"id"`
	Seq       int64       `json:"seq"`
	Operation string      `json:"operation"`
	DeviceID  string      `json:"device_id"`
	Target    string      `json:"target"`
	Tool      string      `json:"tool"`
	Args      SessionArgs `json:"args"`
	At        time.Time   `json:"at"`
}
