package ws

import "time"

// ConnInfo describes one notification socket for event reporting.
type ConnInfo struct {
	ConnID      string
	Username    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
