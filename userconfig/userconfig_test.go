package userconfig

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/alecthomas/units"
)

const validConfig = `smtp:
  smtpServerAddress: smtp://mail.example.com:2525
  username: MyUser123
  password: 123456-A_BCDE
message:
  from: sender@example.com
  to:
    - one@example.com
    - two@example.com
  cc:
    - three@example.com
  subject: Monthly report
  text: The report is attached.
  html: <p>The report is attached.</p>
  attachments:
    - ./report.pdf
  listUnsubscribe: <https://example.com/unsubscribe>
  maxAttachmentSize: 10MiB
`

func TestParse(t *testing.T) {
	testCases := []struct {
		description   string
		input         string
		shouldBeError bool
	}{
		{
			description:   "valid case",
			input:         validConfig,
			shouldBeError: false,
		},
		{
			description: "missing smtp section",
			input: `message:
  from: sender@example.com
  to:
    - one@example.com
`,
			shouldBeError: true,
		},
		{
			description: "missing message section",
			input: `smtp:
  smtpServerAddress: smtp://mail.example.com:2525
  username: MyUser123
  password: 123456-A_BCDE
`,
			shouldBeError: true,
		},
		{
			description: "max attachment size is not a size",
			input: `smtp:
  username: MyUser123
  password: 123456-A_BCDE
message:
  from: sender@example.com
  to:
    - one@example.com
  maxAttachmentSize: very big
`,
			shouldBeError: true,
		},
		{
			description:   "not yaml",
			input:         `{{{`,
			shouldBeError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			_, err := Parse(bytes.NewBuffer([]byte(tc.input)))
			if (err != nil) != tc.shouldBeError {
				t.Errorf(
					"unexpected error status--wanted %v but got %v with error %v",
					tc.shouldBeError,
					err != nil,
					err,
				)
			}
		})
	}
}

func TestParseFields(t *testing.T) {
	m, err := Parse(bytes.NewBuffer([]byte(validConfig)))
	if err != nil {
		t.Fatal(err)
	}

	if m.SMTP.Username != "MyUser123" {
		t.Errorf("unexpected username %q", m.SMTP.Username)
	}
	wantTo := []string{"one@example.com", "two@example.com"}
	if !reflect.DeepEqual(m.Message.To, wantTo) {
		t.Errorf("expected to %v but got %v", wantTo, m.Message.To)
	}
	if m.Message.MaxAttachmentSize != 10*units.MiB {
		t.Errorf("expected a 10MiB size cap but got %v", m.Message.MaxAttachmentSize)
	}
	if m.Message.ListUnsubscribe != "<https://example.com/unsubscribe>" {
		t.Errorf("unexpected listUnsubscribe %q", m.Message.ListUnsubscribe)
	}
}

func TestCheckAndSetDefaults(t *testing.T) {
	base := func() Meta {
		m, err := Parse(bytes.NewBuffer([]byte(validConfig)))
		if err != nil {
			t.Fatal(err)
		}
		return *m
	}

	t.Run("valid config passes through", func(t *testing.T) {
		m := base()
		c, err := m.CheckAndSetDefaults()
		if err != nil {
			t.Fatal(err)
		}
		if c.SMTP.Host != "mail.example.com" || c.SMTP.Port != 2525 {
			t.Errorf("unexpected smtp settings %+v", c.SMTP)
		}
		if c.Message.MaxAttachmentSize != 10*units.MiB {
			t.Errorf("expected the configured size cap but got %v", c.Message.MaxAttachmentSize)
		}
	})

	t.Run("size cap defaults when absent", func(t *testing.T) {
		m := base()
		m.Message.MaxAttachmentSize = 0
		c, err := m.CheckAndSetDefaults()
		if err != nil {
			t.Fatal(err)
		}
		if c.Message.MaxAttachmentSize != 25*units.MiB {
			t.Errorf("expected the default 25MiB cap but got %v", c.Message.MaxAttachmentSize)
		}
	})

	t.Run("missing from address", func(t *testing.T) {
		m := base()
		m.Message.From = ""
		if _, err := m.CheckAndSetDefaults(); err == nil {
			t.Error("expected an error for a missing from address")
		}
	})

	t.Run("no recipients at all", func(t *testing.T) {
		m := base()
		m.Message.To = nil
		m.Message.CC = nil
		m.Message.BCC = nil
		if _, err := m.CheckAndSetDefaults(); err == nil {
			t.Error("expected an error for a config with no recipients")
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		m := base()
		m.SMTP.Password = ""
		if _, err := m.CheckAndSetDefaults(); err == nil {
			t.Error("expected an error for missing credentials")
		}
	})
}
