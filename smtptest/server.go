package smtptest

// Server contains state information for an SMTP server used by the test
// suite. The server must be able to return the messages submitted to it
// so tests can assert on envelopes and bodies. It is meant to start during
// a test (or test suite) and stop right after.
type Server interface {
	// Start launches the server and returns an error if this fails.
	// Blocking; run it in its own goroutine.
	Start() error

	// Close terminates the server. Designed not to return an error so
	// it's easier to use with defer; implementations should log failures
	// to close.
	Close()

	// RetrieveEmails returns the wire-format payloads of all messages
	// submitted to the server after time t in Unix epoch nanoseconds.
	RetrieveEmails(t int64) ([]string, error)

	// Address returns the host:port of the server.
	Address() string
}
