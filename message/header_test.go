package message

import (
	"errors"
	"reflect"
	"testing"
)

func TestHeaderSetAndAdd(t *testing.T) {
	var h Header

	if err := h.Set("From", "a@x.com"); err != nil {
		t.Fatal(err)
	}
	if err := h.Add("Received", "one"); err != nil {
		t.Fatal(err)
	}
	if err := h.Add("Received", "two"); err != nil {
		t.Fatal(err)
	}
	if err := h.Set("Subject", "hello"); err != nil {
		t.Fatal(err)
	}

	wantKeys := []string{"From", "Received", "Received", "Subject"}
	if got := h.Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("expected keys %v but got %v", wantKeys, got)
	}

	// Set replaces the first occurrence in place and drops later
	// duplicates.
	if err := h.Set("Received", "three"); err != nil {
		t.Fatal(err)
	}
	wantKeys = []string{"From", "Received", "Subject"}
	if got := h.Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("expected keys %v after Set but got %v", wantKeys, got)
	}
	if got := h.Get("Received"); got != "three" {
		t.Errorf("expected %q but got %q", "three", got)
	}
}

func TestHeaderValuesOrder(t *testing.T) {
	var h Header
	h.Add("Received", "one")
	h.Add("Received", "two")

	want := []string{"one", "two"}
	if got := h.Values("Received"); !reflect.DeepEqual(got, want) {
		t.Errorf("expected values %v but got %v", want, got)
	}
}

func TestHeaderCaseInsensitiveLookup(t *testing.T) {
	var h Header
	h.Set("Message-ID", "<x@y.com>")

	if got := h.Get("message-id"); got != "<x@y.com>" {
		t.Errorf("expected a case-insensitive match but got %q", got)
	}
	if !h.Has("MESSAGE-ID") {
		t.Error("expected Has to match case-insensitively")
	}
}

func TestHeaderDel(t *testing.T) {
	var h Header
	h.Add("X-Test", "one")
	h.Add("X-Test", "two")
	h.Set("Subject", "keep me")

	h.Del("x-test")

	if h.Has("X-Test") {
		t.Error("expected every occurrence of the field to be removed")
	}
	if h.Len() != 1 {
		t.Errorf("expected 1 remaining field but got %v", h.Len())
	}
}

func TestHeaderInvalidFields(t *testing.T) {
	testCases := []struct {
		description string
		name        string
		value       string
	}{
		{
			description: "empty name",
			name:        "",
			value:       "v",
		},
		{
			description: "space in name",
			name:        "Bad Header",
			value:       "v",
		},
		{
			description: "colon in name",
			name:        "Bad:Header",
			value:       "v",
		},
		{
			description: "newline in value",
			name:        "X-Test",
			value:       "a\r\nBcc: sneaky@x.com",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			var h Header
			err := h.Set(tc.name, tc.value)
			var he *HeaderError
			if !errors.As(err, &he) {
				t.Fatalf("expected a *HeaderError but got %v", err)
			}
			if h.Len() != 0 {
				t.Error("expected the header to stay unset")
			}
		})
	}
}
