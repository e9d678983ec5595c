package logging

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"

	// Actor
	FieldUserID  = "user_id"
	FieldOtherID = "other_id"

	// Domain
	FieldComponent = "component"
	FieldMessageID = "message_id"
	FieldReplyID   = "reply_id"
	FieldCount     = "count"
)
