package web

import (
	"fmt"

	"github.com/sweeney/garage-door/internal/door"
)

// Fixed response bodies. Nothing else is ever written to a client.
const (
	bodyUnauthorized     = "Unauthorized"
	bodyBusy             = "Door controller busy"
	bodyHardwareError    = "Hardware error"
	bodyCancelled        = "Request cancelled"
	bodyMethodNotAllowed = "Method not allowed"
	bodyHealthy          = "ok"
)

// StatusResponse is the /status result.
type StatusResponse struct {
	Opened   bool
	Closed   bool
	Flashing bool
	Uptime   string
}

// NewStatusResponse builds a StatusResponse from a classification.
func NewStatusResponse(cl door.Classification, uptime string) StatusResponse {
	return StatusResponse{
		Opened:   cl.OpenLimit == door.High,
		Closed:   cl.CloseLimit == door.High,
		Flashing: cl.Flashing(),
		Uptime:   uptime,
	}
}

// String renders the response in the layout existing clients parse.
// It looks like JSON but line breaks and spacing are fixed.
func (s StatusResponse) String() string {
	return fmt.Sprintf("{\"opened\": %d,\n\"closed\": %d,\n\"flashing\": %d,\n\"uptime\": \"%s\"}",
		bit(s.Opened), bit(s.Closed), bit(s.Flashing), s.Uptime)
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
