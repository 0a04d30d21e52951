package message

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
)

// base64 output is wrapped to stay under the RFC 2045 line length limit
const base64LineLength = 76

// WriteTo writes the full RFC 5322 wire format of the message — headers
// plus MIME body — to w. It is a snapshot of the message as configured at
// the time of the call. Message therefore satisfies io.WriterTo, which is
// the shape the transport's send operation consumes.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := m.write(cw)
	return cw.n, err
}

// Serialize returns the message in RFC 5322 wire format.
func (m *Message) Serialize() (string, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (m *Message) write(w io.Writer) error {
	for _, f := range m.header.All() {
		if _, err := fmt.Fprintf(w, "%v: %v\r\n", f.Name, f.Value); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "MIME-Version: 1.0\r\n"); err != nil {
		return err
	}

	if len(m.attachments) == 0 {
		return m.writeBody(w)
	}

	mixed := multipart.NewWriter(w)
	_, err := fmt.Fprintf(
		w,
		"Content-Type: multipart/mixed; boundary=%v\r\n\r\n",
		mixed.Boundary(),
	)
	if err != nil {
		return err
	}

	if err := m.writeBodyPart(mixed); err != nil {
		return err
	}

	for _, a := range m.attachments {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", a.ContentType)
		h.Set("Content-Transfer-Encoding", "base64")
		h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
		pw, err := mixed.CreatePart(h)
		if err != nil {
			return err
		}
		if err := writeBase64(pw, a.Content); err != nil {
			return err
		}
	}

	return mixed.Close()
}

// writeBody writes the body of an attachment-free message: a
// multipart/alternative container when both text and HTML are set,
// otherwise a single part of whichever type is present. A message with
// neither serializes as an empty plain-text body, which is valid.
func (m *Message) writeBody(w io.Writer) error {
	if m.text != "" && m.html != "" {
		alt := multipart.NewWriter(w)
		_, err := fmt.Fprintf(
			w,
			"Content-Type: multipart/alternative; boundary=%v\r\n\r\n",
			alt.Boundary(),
		)
		if err != nil {
			return err
		}
		return m.writeAlternatives(alt)
	}

	ctype, body := "text/plain", m.text
	if m.html != "" {
		ctype, body = "text/html", m.html
	}
	_, err := fmt.Fprintf(
		w,
		"Content-Type: %v; charset=UTF-8\r\nContent-Transfer-Encoding: quoted-printable\r\n\r\n",
		ctype,
	)
	if err != nil {
		return err
	}
	return writeQuotedPrintable(w, body)
}

// writeBodyPart writes the message body as the first part of a
// multipart/mixed message. When neither text nor HTML is set, the mixed
// container holds attachments only.
func (m *Message) writeBodyPart(mixed *multipart.Writer) error {
	if m.text == "" && m.html == "" {
		return nil
	}

	if m.text != "" && m.html != "" {
		// The alternative boundary has to be known before the enclosing
		// part header is written, so the nested writer targets the part
		// writer and reuses a pre-generated boundary.
		boundary := multipart.NewWriter(io.Discard).Boundary()
		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%v", boundary))
		pw, err := mixed.CreatePart(h)
		if err != nil {
			return err
		}
		alt := multipart.NewWriter(pw)
		if err := alt.SetBoundary(boundary); err != nil {
			return err
		}
		return m.writeAlternatives(alt)
	}

	ctype, body := "text/plain", m.text
	if m.html != "" {
		ctype, body = "text/html", m.html
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", ctype+"; charset=UTF-8")
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	pw, err := mixed.CreatePart(h)
	if err != nil {
		return err
	}
	return writeQuotedPrintable(pw, body)
}

// writeAlternatives writes the text and HTML parts into alt, plain text
// first so the HTML part is the richest alternative, and closes alt.
func (m *Message) writeAlternatives(alt *multipart.Writer) error {
	parts := []struct {
		ctype string
		body  string
	}{
		{"text/plain", m.text},
		{"text/html", m.html},
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", p.ctype+"; charset=UTF-8")
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		pw, err := alt.CreatePart(h)
		if err != nil {
			return err
		}
		if err := writeQuotedPrintable(pw, p.body); err != nil {
			return err
		}
	}
	return alt.Close()
}

func writeQuotedPrintable(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := io.WriteString(qp, body); err != nil {
		return err
	}
	return qp.Close()
}

func writeBase64(w io.Writer, content []byte) error {
	enc := base64.StdEncoding.EncodeToString(content)
	for len(enc) > 0 {
		n := base64LineLength
		if len(enc) < n {
			n = len(enc)
		}
		if _, err := io.WriteString(w, enc[:n]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return err
		}
		enc = enc[n:]
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
