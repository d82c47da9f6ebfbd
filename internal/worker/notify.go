package worker

// ResumeParseNotifyMessage is the WebSocket message forwarded to the browser
// over Redis pub/sub once a parse task finishes. Field names match the
// frontend decoder.
type ResumeParseNotifyMessage struct {
	Status        string `json:"status"`
	ResumeID      uint   `json:"resume_id"`
	CorrelationID string `json:"correlation_id"`
	ErrorMessage  string `json:"error_message,omitempty"`
}
