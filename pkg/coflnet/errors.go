package coflnet

import "fmt"

// TransportError reports a failure to complete an HTTP exchange with the
// Coflnet API: connection refused, timeout, or a non-2xx status after the
// client's retries are exhausted. StatusCode is zero when the request never
// produced a response.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("coflnet: %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("coflnet: request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response that arrived with a 2xx status but whose
// body does not match any shape the client knows how to read: undecodable
// JSON, an unrecognized envelope, or an explicit success=false flag.
type ProtocolError struct {
	Endpoint string
	Reason   string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("coflnet: unusable response from %s: %s", e.Endpoint, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
