package chat

// Frame types exchanged over the realtime connection. Outbound frames carry
// control (join/leave) and sends; the only inbound frames the client acts on
// are message pushes and server errors.
const (
	frameJoin    = "join"
	frameLeave   = "leave"
	frameMessage = "message"
	frameError   = "error"
)

// frame is the JSON envelope for every realtime exchange.
type frame struct {
	Type          string   `json:"type"`
	AppointmentID string   `json:"appointmentId,omitempty"`
	Body          string   `json:"message,omitempty"`
	ClientID      string   `json:"clientId,omitempty"`
	Message       *Message `json:"data,omitempty"`
	Error         string   `json:"error,omitempty"`
}
