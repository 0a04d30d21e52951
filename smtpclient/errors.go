package smtpclient

import "fmt"

// ConnectionError indicates that the SMTP session could not be established
// (DNS, TCP, TLS, or authentication failure), or that an operation
// requiring a live session ran while disconnected. The client never
// retries; the error is surfaced as-is.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RecipientError indicates that a send was attempted with zero valid
// recipients. No network transaction takes place.
type RecipientError struct {
	Reason string
}

func (e *RecipientError) Error() string {
	return fmt.Sprintf("recipient error: %v", e.Reason)
}

// SendError indicates that the server rejected or failed the send
// transaction after it was submitted, wrapping the protocol-level cause.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send email: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
