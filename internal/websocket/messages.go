package websocket

import (
	"time"

	"bizdash/internal/dataprocessing"
	apierrors "bizdash/internal/errors"
)

// Message types. Requests are answered with a response of the same type, or
// with TypeError.
const (
	TypeSession      = "session"
	TypeDomains      = "domains"
	TypeLoad         = "load"
	TypeUpload       = "upload"
	TypeCountries    = "countries"
	TypeProcess      = "process"
	TypeReport       = "report"
	TypeHeartbeat    = "heartbeat"
	TypeRunCompleted = "run_completed"
	TypeError        = "error"
)

// EncodingBase64 marks upload content that is base64 encoded (XLSX files).
const EncodingBase64 = "base64"

// Request is a client message.
type Request struct {
	ID        string                 `json:"id,omitempty"`
	Type      string                 `json:"type"`
	DatasetID string                 `json:"dataset_id,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Content   string                 `json:"content,omitempty"`
	Encoding  string                 `json:"encoding,omitempty"`
	Domain    string                 `json:"domain,omitempty"`
	Options   dataprocessing.Options `json:"options"`
	Formats   []string               `json:"formats,omitempty"`
}

// Response is a server message. ID echoes the request it answers.
type Response struct {
	ID        string                    `json:"id,omitempty"`
	Type      string                    `json:"type"`
	SessionID string                    `json:"session_id,omitempty"`
	DatasetID string                    `json:"dataset_id,omitempty"`
	Data      interface{}               `json:"data,omitempty"`
	Error     *apierrors.ProblemDetails `json:"error,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
}
