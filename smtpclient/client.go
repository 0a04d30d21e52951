package smtpclient

import (
	"errors"
	"net/mail"

	"github.com/rs/zerolog/log"
	gomail "gopkg.in/gomail.v2"

	"github.com/vinimiraa/EmailSender/message"
)

// Client owns one connection to an SMTP server. Its lifecycle is
// Disconnected → Connected → Disconnected, driven by Connect and
// Disconnect, or by WithConnection, which pairs them on every exit path.
// A Client is synchronous and owns exactly one connection at a time;
// callers needing concurrency must use one Client per goroutine.
type Client struct {
	config Config
	dialer *gomail.Dialer
	conn   gomail.SendCloser
}

// NewClient validates the user-supplied settings and returns a
// disconnected Client. Returns an error on validation failure.
func NewClient(uc UserConfig) (*Client, error) {
	cfg, err := uc.CheckAndSetDefaults()
	if err != nil {
		return nil, err
	}
	return NewClientFromConfig(cfg), nil
}

// NewClientFromConfig returns a disconnected Client for an
// already-validated Config.
func NewClientFromConfig(cfg Config) *Client {
	return &Client{
		config: cfg,
		dialer: &gomail.Dialer{
			Host:      cfg.Host,
			Port:      cfg.Port,
			Username:  cfg.Username,
			Password:  cfg.Password,
			SSL:       cfg.UseSSL,
			TLSConfig: cfg.TLSConfig,
		},
	}
}

// Connected reports whether the client currently holds a live session.
func (c *Client) Connected() bool {
	return c.conn != nil
}

// Connect opens the connection to the SMTP server and authenticates: with
// implicit TLS when the config requests SSL, otherwise upgrading via
// STARTTLS first. Any protocol or network failure returns a
// *ConnectionError and leaves the client disconnected. Calling Connect on
// a connected client is a no-op with a warning.
func (c *Client) Connect() error {
	if c.conn != nil {
		log.Warn().
			Str("host", c.config.Host).
			Msg("already connected to an SMTP server")
		return nil
	}

	conn, err := c.dialer.Dial()
	if err != nil {
		log.Error().
			Str("host", c.config.Host).
			Int("port", c.config.Port).
			Err(err).
			Msg("can't connect to the SMTP server")
		return &ConnectionError{Err: err}
	}
	c.conn = conn
	log.Info().
		Str("host", c.config.Host).
		Int("port", c.config.Port).
		Msg("connected to the SMTP server")
	return nil
}

// Disconnect cleanly terminates the session. The client is left
// disconnected even if the QUIT exchange fails. No-op when already
// disconnected.
func (c *Client) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		log.Warn().
			Str("host", c.config.Host).
			Err(err).
			Msg("error closing the SMTP session")
		return err
	}
	log.Info().Str("host", c.config.Host).Msg("disconnected from the SMTP server")
	return nil
}

// Send submits the message in a single SMTP transaction: envelope sender
// from the message's From header, envelope recipients from the
// de-duplicated union of its To, CC, and BCC addresses. It requires a
// connected client (*ConnectionError otherwise) and at least one valid
// recipient (*RecipientError otherwise — checked before any network I/O).
// A server-side rejection is returned as a *SendError wrapping the cause.
// A successful send leaves the session open.
func (c *Client) Send(msg *message.Message) error {
	if c.conn == nil {
		err := errors.New("not connected to any SMTP server, connect first")
		log.Error().Msg(err.Error())
		return &ConnectionError{Err: err}
	}

	recipients := msg.Recipients()
	if len(recipients) == 0 {
		log.Error().Msg("no recipients specified, provide at least one recipient")
		return &RecipientError{Reason: "no recipients specified, provide at least one recipient"}
	}

	from := envelopeSender(msg.From())
	if err := c.conn.Send(from, recipients, msg); err != nil {
		log.Error().
			Str("from", from).
			Strs("recipients", recipients).
			Err(err).
			Msg("failed to send email")
		return &SendError{Err: err}
	}

	log.Info().
		Str("from", from).
		Strs("recipients", recipients).
		Msg("email sent")
	return nil
}

// WithConnection runs fn with a connected client, guaranteeing a
// Disconnect on every exit path, and propagates fn's error. A failure to
// connect is returned without running fn.
func (c *Client) WithConnection(fn func(*Client) error) error {
	if err := c.Connect(); err != nil {
		return err
	}
	defer func() {
		if err := c.Disconnect(); err != nil {
			log.Warn().Err(err).Msg("error disconnecting from the SMTP server")
		}
	}()
	return fn(c)
}

// envelopeSender extracts the bare addr-spec from a From header value such
// as "Name <user@example.com>". The raw value is used when it doesn't
// parse, letting the server report the problem.
func envelopeSender(from string) string {
	a, err := mail.ParseAddress(from)
	if err != nil {
		return from
	}
	return a.Address
}
