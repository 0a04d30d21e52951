package message

import (
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const commaSpace = ", "

// Message represents one outbound email. Create it with New, configure it
// with the setters, then hand it to smtpclient.Client.Send or serialize it
// yourself. A Message is not safe for concurrent use.
type Message struct {
	header            Header
	text              string
	html              string
	attachments       []Attachment
	maxAttachmentSize int64
}

// New returns an empty Message.
func New() *Message {
	return &Message{}
}

// Header exposes the message's ordered header store for direct
// manipulation. Most callers should prefer the named setters.
func (m *Message) Header() *Header {
	return &m.header
}

// setHeader applies a named setter's header write. A structurally invalid
// value is refused by the header store; log it so the drop leaves a trace,
// the same way the other drop paths do.
func (m *Message) setHeader(name, value string) {
	if err := m.header.Set(name, value); err != nil {
		log.Error().Err(err).Str("field", name).Msg("can't set header")
	}
}

// SetDate sets the Date header. A zero time means "now". The header value
// is formatted per RFC 2822.
func (m *Message) SetDate(t time.Time) {
	if t.IsZero() {
		t = time.Now()
	}
	m.setHeader("Date", t.Format(time.RFC1123Z))
	log.Debug().Str("date", m.header.Get("Date")).Msg("date header set")
}

// Date returns the Date header value.
func (m *Message) Date() string {
	return m.header.Get("Date")
}

// SetFrom sets the From header verbatim. The sender address is assumed to
// be pre-validated by the caller.
func (m *Message) SetFrom(addr string) {
	m.setHeader("From", addr)
	log.Debug().Str("from", addr).Msg("from header set")
}

// From returns the From header value.
func (m *Message) From() string {
	return m.header.Get("From")
}

// SetTo validates the given addresses and sets the To header to the
// comma-joined addresses that passed. If none pass, the header is not set.
func (m *Message) SetTo(to []string) {
	m.setAddressList("To", to)
}

// SetCC validates the given addresses and sets the CC header to the
// comma-joined addresses that passed. If none pass, the header is not set.
func (m *Message) SetCC(cc []string) {
	m.setAddressList("CC", cc)
}

// SetBCC validates the given addresses and sets the BCC header to the
// comma-joined addresses that passed. If none pass, the header is not set.
func (m *Message) SetBCC(bcc []string) {
	m.setAddressList("BCC", bcc)
}

// SetRecipients configures all three recipient groups at once. cc and bcc
// may be nil. Invalid addresses are dropped with a warning; this never
// fails, even if every address is invalid — an empty recipient set is only
// an error at send time.
func (m *Message) SetRecipients(to, cc, bcc []string) {
	m.SetTo(to)
	if len(cc) > 0 {
		m.SetCC(cc)
	}
	if len(bcc) > 0 {
		m.SetBCC(bcc)
	}
}

func (m *Message) setAddressList(field string, addrs []string) {
	valid := ValidAddresses(addrs)
	if len(valid) == 0 {
		return
	}
	m.setHeader(field, strings.Join(valid, commaSpace))
	log.Debug().Str("field", field).Strs("addresses", valid).Msg("recipients set")
}

// To returns the To header addresses.
func (m *Message) To() []string {
	return m.addressList("To")
}

// CC returns the CC header addresses.
func (m *Message) CC() []string {
	return m.addressList("CC")
}

// BCC returns the BCC header addresses.
func (m *Message) BCC() []string {
	return m.addressList("BCC")
}

func (m *Message) addressList(field string) []string {
	v := m.header.Get(field)
	if v == "" {
		return nil
	}
	return strings.Split(v, commaSpace)
}

// Recipients returns the union of the To, CC, and BCC addresses with
// duplicates removed, in first-seen order. This is the envelope recipient
// list used at send time.
func (m *Message) Recipients() []string {
	var all []string
	seen := make(map[string]bool)
	for _, group := range [][]string{m.To(), m.CC(), m.BCC()} {
		for _, a := range group {
			if seen[a] {
				continue
			}
			seen[a] = true
			all = append(all, a)
		}
	}
	return all
}

// SetSubject sets the Subject header.
func (m *Message) SetSubject(subject string) {
	m.setHeader("Subject", subject)
	log.Debug().Str("subject", subject).Msg("subject header set")
}

// Subject returns the Subject header value.
func (m *Message) Subject() string {
	return m.header.Get("Subject")
}

// SetContent sets the message body. A non-empty text becomes the plain-text
// part; a non-empty html becomes the HTML alternative. When both are given
// the message serializes as multipart/alternative, with which alternative
// to display left to the receiving mail client.
func (m *Message) SetContent(text, html string) {
	if text != "" {
		m.text = text
		log.Debug().Msg("text content set")
	}
	if html != "" {
		m.html = html
		log.Debug().Msg("html content set")
	}
}

// Content returns the plain-text body if set, otherwise the HTML body.
func (m *Message) Content() string {
	if m.text != "" {
		return m.text
	}
	return m.html
}

// SetMessageID sets the Message-ID header. With both arguments empty a
// unique ID of the form <token@hostname> is generated per the RFC 2822
// convention. A non-empty id is folded into the local part; a non-empty
// domain replaces the local hostname.
func (m *Message) SetMessageID(id, domain string) {
	if domain == "" {
		h, err := os.Hostname()
		if err != nil || h == "" {
			h = "localhost"
		}
		domain = h
	}
	token := uuid.NewString()
	if id != "" {
		token = id + "." + token
	}
	m.setHeader("Message-ID", fmt.Sprintf("<%v@%v>", token, domain))
	log.Debug().Str("message-id", m.header.Get("Message-ID")).Msg("message-id header set")
}

// MessageID returns the Message-ID header value.
func (m *Message) MessageID() string {
	return m.header.Get("Message-ID")
}

// SetListUnsubscribe sets the List-Unsubscribe header verbatim.
func (m *Message) SetListUnsubscribe(url string) {
	m.setHeader("List-Unsubscribe", url)
	log.Debug().Str("list-unsubscribe", url).Msg("list-unsubscribe header set")
}

// ListUnsubscribe returns the List-Unsubscribe header value.
func (m *Message) ListUnsubscribe() string {
	return m.header.Get("List-Unsubscribe")
}

// SetCustom sets an arbitrary header. A structurally invalid name or value
// is logged and returned as a *HeaderError; the header stays unset and the
// caller can keep building the message.
func (m *Message) SetCustom(name, value string) error {
	if err := m.header.Set(name, value); err != nil {
		log.Error().Err(err).Str("field", name).Msg("can't set custom header")
		return err
	}
	log.Debug().Str("field", name).Str("value", value).Msg("custom header set")
	return nil
}

// Custom returns the value of an arbitrary header, or the empty string if
// it is not set.
func (m *Message) Custom(name string) string {
	return m.header.Get(name)
}

// ValidAddresses returns the subset of addrs that are syntactically valid
// RFC 5322 addresses with a deliverable-looking domain, normalized to
// their bare addr-spec form (display names stripped) so each entry is
// usable verbatim as an envelope recipient. Each dropped address is
// logged as a warning; an empty result is not an error here.
func ValidAddresses(addrs []string) []string {
	var valid []string
	for _, a := range addrs {
		normalized, err := normalizeAddress(a)
		if err != nil {
			log.Warn().Str("address", a).Err(err).Msg("invalid email address, it will be ignored")
			continue
		}
		valid = append(valid, normalized)
	}
	return valid
}

// normalizeAddress parses a single address, applies a shape check to its
// domain — non-empty, at least one dot separator, no leading or trailing
// dot — and returns the bare addr-spec. Deliverability beyond that (DNS,
// MX records) is out of scope.
func normalizeAddress(addr string) (string, error) {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", err
	}
	at := strings.LastIndex(parsed.Address, "@")
	if at < 0 {
		return "", fmt.Errorf("address %q has no domain part", addr)
	}
	domain := parsed.Address[at+1:]
	if domain == "" || !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", fmt.Errorf("address %q has an undeliverable domain %q", addr, domain)
	}
	return parsed.Address, nil
}
