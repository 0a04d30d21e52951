package message

import (
	"fmt"
	"strings"
)

// HeaderError indicates that a header assignment was structurally invalid,
// e.g., a field name containing whitespace or a value containing a bare
// CR/LF. It is recoverable: the header is left unset and message building
// can continue.
type HeaderError struct {
	Name   string
	Reason string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("invalid header %q: %v", e.Name, e.Reason)
}

// headerField is one name/value pair in a Header. Duplicate names are
// permitted and insertion order is preserved.
type headerField struct {
	name  string
	value string
}

// Header is an ordered multi-map of message header fields. The zero value
// is an empty header ready for use.
type Header struct {
	fields []headerField
}

// checkField validates a header name and value per RFC 5322: the name must
// be printable US-ASCII with no colon or whitespace, and the value must not
// contain bare CR or LF (folding is left to serialization).
func checkField(name, value string) error {
	if name == "" {
		return &HeaderError{Name: name, Reason: "empty field name"}
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < '!' || c > '~' || c == ':' {
			return &HeaderError{Name: name, Reason: fmt.Sprintf("illegal character %q in field name", c)}
		}
	}
	if strings.ContainsAny(value, "\r\n") {
		return &HeaderError{Name: name, Reason: "field value contains CR or LF"}
	}
	return nil
}

// Set assigns value to the named field, replacing the first existing
// occurrence in place and removing any later duplicates. Field names are
// matched case-insensitively.
func (h *Header) Set(name, value string) error {
	if err := checkField(name, value); err != nil {
		return err
	}
	replaced := false
	kept := h.fields[:0]
	for _, f := range h.fields {
		if !strings.EqualFold(f.name, name) {
			kept = append(kept, f)
			continue
		}
		if !replaced {
			kept = append(kept, headerField{name: name, value: value})
			replaced = true
		}
	}
	h.fields = kept
	if !replaced {
		h.fields = append(h.fields, headerField{name: name, value: value})
	}
	return nil
}

// Add appends a new occurrence of the named field, keeping any existing
// ones.
func (h *Header) Add(name, value string) error {
	if err := checkField(name, value); err != nil {
		return err
	}
	h.fields = append(h.fields, headerField{name: name, value: value})
	return nil
}

// Get returns the value of the first occurrence of the named field, or the
// empty string if the field is absent.
func (h *Header) Get(name string) string {
	for _, f := range h.fields {
		if strings.EqualFold(f.name, name) {
			return f.value
		}
	}
	return ""
}

// Values returns the values of every occurrence of the named field in
// insertion order.
func (h *Header) Values(name string) []string {
	var vs []string
	for _, f := range h.fields {
		if strings.EqualFold(f.name, name) {
			vs = append(vs, f.value)
		}
	}
	return vs
}

// Del removes every occurrence of the named field.
func (h *Header) Del(name string) {
	kept := h.fields[:0]
	for _, f := range h.fields {
		if !strings.EqualFold(f.name, name) {
			kept = append(kept, f)
		}
	}
	h.fields = kept
}

// Has reports whether at least one occurrence of the named field is set.
func (h *Header) Has(name string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.name, name) {
			return true
		}
	}
	return false
}

// Keys returns every field name in insertion order, including duplicates.
func (h *Header) Keys() []string {
	ks := make([]string, len(h.fields))
	for i, f := range h.fields {
		ks[i] = f.name
	}
	return ks
}

// Len returns the number of header fields, counting duplicates.
func (h *Header) Len() int {
	return len(h.fields)
}

// Field is one name/value pair as returned by All.
type Field struct {
	Name  string
	Value string
}

// All returns every field in insertion order for iteration.
func (h *Header) All() []Field {
	fs := make([]Field, len(h.fields))
	for i, f := range h.fields {
		fs[i] = Field{Name: f.name, Value: f.value}
	}
	return fs
}
