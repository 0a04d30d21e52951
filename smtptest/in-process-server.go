package smtptest

import (
	"crypto/tls"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/emersion/go-smtp"
)

// envelope is one submitted message: the MAIL FROM sender, the RCPT TO
// recipients in the order the client issued them, the DATA payload, and a
// timestamp taken just before saving, so tests can select messages
// before/after a point in time.
type envelope struct {
	created    time.Time
	from       string
	recipients []string
	body       string
}

// Backend implements smtp.Backend: an authentication gate in front of an
// InMemoryEmailStore. With no pinned credentials any non-empty
// username/password pair is accepted, so the backend isn't coupled to a
// specific test configuration.
type Backend struct {
	store *InMemoryEmailStore

	// When both are set, only this exact pair authenticates.
	username string
	password string
}

// Login implements smtp.Backend.
func (be *Backend) Login(_ *smtp.ConnectionState, username string, password string) (smtp.Session, error) {
	if username == "" || password == "" {
		return nil, errors.New("no username or password provided")
	}
	if be.username != "" && (username != be.username || password != be.password) {
		return nil, errors.New("bad username or password")
	}
	return &session{store: be.store}, nil
}

// AnonymousLogin implements smtp.Backend. Not supported since we want to
// enforce AUTH.
func (be *Backend) AnonymousLogin(_ *smtp.ConnectionState) (smtp.Session, error) {
	return nil, smtp.ErrAuthUnsupported
}

// session implements smtp.Session for one authenticated connection,
// accumulating the envelope of the in-flight transaction.
type session struct {
	store      *InMemoryEmailStore
	from       string
	recipients []string
}

// Reset implements smtp.Session, aborting the in-flight transaction.
func (s *session) Reset() {
	s.from = ""
	s.recipients = nil
}

// Logout implements smtp.Session. No-op here.
func (s *session) Logout() error { return nil }

// Mail implements smtp.Session, recording the envelope sender.
func (s *session) Mail(from string, _ smtp.MailOptions) error {
	s.from = from
	return nil
}

// Rcpt implements smtp.Session, recording one envelope recipient.
func (s *session) Rcpt(to string) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data implements smtp.Session, saving the completed envelope in the
// store.
func (s *session) Data(r io.Reader) error {
	// doubtful we'll get an email this big, but we need a limit
	var maxEmailSize int64 = 100 * units.MiB
	buf, err := io.ReadAll(io.LimitReader(r, maxEmailSize))
	if err != nil {
		return err
	}

	str := &strings.Builder{}
	if _, err := str.Write(buf); err != nil {
		return err
	}
	s.store.save(envelope{
		created:    time.Now(),
		from:       s.from,
		recipients: s.recipients,
		body:       str.String(),
	})
	s.Reset()
	return nil
}

// InMemoryEmailStore retains submitted envelopes in memory for comparison
// against a test's expected output. Goroutine safe since we don't know how
// many connections will be hitting the server at once.
type InMemoryEmailStore struct {
	mu        *sync.Mutex
	envelopes []envelope
}

func (es *InMemoryEmailStore) save(e envelope) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.envelopes = append(es.envelopes, e)
}

// RetrieveEmails returns the payloads of all messages submitted after
// epoch nanoseconds t.
func (es *InMemoryEmailStore) RetrieveEmails(t int64) ([]string, error) {
	es.mu.Lock()
	defer es.mu.Unlock()
	r := make([]string, 0, len(es.envelopes))
	for _, e := range es.envelopes {
		if e.created.UnixNano() >= t {
			r = append(r, e.body)
		}
	}
	return r, nil
}

// RetrieveEnvelopes returns the (sender, recipients) pairs of all messages
// submitted after epoch nanoseconds t, in submission order.
func (es *InMemoryEmailStore) RetrieveEnvelopes(t int64) (senders []string, recipients [][]string) {
	es.mu.Lock()
	defer es.mu.Unlock()
	for _, e := range es.envelopes {
		if e.created.UnixNano() >= t {
			senders = append(senders, e.from)
			recipients = append(recipients, e.recipients)
		}
	}
	return senders, recipients
}

// InProcessServer is an SMTP server that runs in the same process as the
// test suite, letting us inspect submitted messages. Initialize it via
// NewInProcessServer.
type InProcessServer struct {
	*smtp.Server
	*InMemoryEmailStore
	backend *Backend
}

var _ Server = (*InProcessServer)(nil)

// NewInProcessServer creates an InProcessServer listening on addr (e.g.,
// ":2526"), configured to require STARTTLS before AUTH and to store
// incoming messages in memory. Must provide the paths to the key and cert
// used for TLS; the cert must be a root cert.
func NewInProcessServer(addr string, keypath string, certpath string) *InProcessServer {
	store := &InMemoryEmailStore{
		mu: &sync.Mutex{},
	}
	be := &Backend{store: store}

	srv := smtp.NewServer(be)
	srv.Addr = addr
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = false // need AUTH over TLS here
	srv.AuthDisabled = false
	// Strict enforces <address> syntax in MAIL FROM/RCPT TO arguments.
	srv.Strict = true

	cert, err := tls.LoadX509KeyPair(certpath, keypath)
	// No way to carry on without a cert, so we panic. We're in a test
	// suite, so this should be fine.
	if err != nil {
		panic(err)
	}
	srv.TLSConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
	}

	return &InProcessServer{
		Server:             srv,
		InMemoryEmailStore: store,
		backend:            be,
	}
}

// RequireCredentials pins the username/password pair the server accepts.
// Call before Start. Without it, any non-empty pair authenticates.
func (is *InProcessServer) RequireCredentials(username, password string) {
	is.backend.username = username
	is.backend.password = password
}

// Start starts the test server. Blocking. Not using ListenAndServeTLS --
// the client should upgrade the connection via STARTTLS.
func (is *InProcessServer) Start() error {
	return is.Server.ListenAndServe()
}

// Close shuts down the test server. You must initialize a new
// InProcessServer instead of restarting this one.
func (is *InProcessServer) Close() {
	is.Server.Close()
}

// Address returns the host:port of the test SMTP server.
func (is *InProcessServer) Address() string {
	return is.Server.Domain + is.Server.Addr
}
