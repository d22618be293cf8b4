package types

import (
	"strings"

	"github.com/google/uuid"
)

type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// HostFromID returns the address part of a remote device id such as
// "remote@192.168.1.10:27042" or "socket@host:port". Ids without an "@" are
// returned unchanged.
func HostFromID(id string) string {
	if i := strings.LastIndex(id, "@"); i >= 0 {
		return id[i+1:]
	}
	return id
}
