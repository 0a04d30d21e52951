package userconfig

import (
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/units"
	yaml "gopkg.in/yaml.v2"

	"github.com/vinimiraa/EmailSender/smtpclient"
)

// Attachments above this size are skipped unless the user configures
// another cap. Matches the limit of common providers.
const defaultMaxAttachmentSize = 25 * units.MiB

// Meta represents all config options the application can use, before
// validation and defaulting.
type Meta struct {
	SMTP    smtpclient.UserConfig `yaml:"smtp"`
	Message MessageConfig         `yaml:"message"`
}

// Checked is a Meta after validation: the SMTP section has been turned
// into usable connection settings and the message section has its
// defaults applied.
type Checked struct {
	SMTP    smtpclient.Config
	Message MessageConfig
}

// MessageConfig describes the one email the application composes and
// sends.
type MessageConfig struct {
	From              string
	To                []string
	CC                []string
	BCC               []string
	Subject           string
	Text              string
	HTML              string
	Attachments       []string
	ListUnsubscribe   string
	MaxAttachmentSize units.Base2Bytes
}

// UnmarshalYAML parses the user-provided message section, returning any
// parsing errors. Validation is left to CheckAndSetDefaults.
func (mc *MessageConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		From              string   `yaml:"from"`
		To                []string `yaml:"to"`
		CC                []string `yaml:"cc"`
		BCC               []string `yaml:"bcc"`
		Subject           string   `yaml:"subject"`
		Text              string   `yaml:"text"`
		HTML              string   `yaml:"html"`
		Attachments       []string `yaml:"attachments"`
		ListUnsubscribe   string   `yaml:"listUnsubscribe"`
		MaxAttachmentSize string   `yaml:"maxAttachmentSize"`
	}
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("can't parse the message config: %v", err)
	}

	mc.From = raw.From
	mc.To = raw.To
	mc.CC = raw.CC
	mc.BCC = raw.BCC
	mc.Subject = raw.Subject
	mc.Text = raw.Text
	mc.HTML = raw.HTML
	mc.Attachments = raw.Attachments
	mc.ListUnsubscribe = raw.ListUnsubscribe

	if raw.MaxAttachmentSize != "" {
		n, err := units.ParseBase2Bytes(raw.MaxAttachmentSize)
		if err != nil {
			return fmt.Errorf(
				"can't parse the max attachment size %q: %v",
				raw.MaxAttachmentSize,
				err,
			)
		}
		mc.MaxAttachmentSize = n
	}

	return nil
}

// CheckAndSetDefaults validates mc and either returns a copy of mc with
// default settings applied or returns an error due to an invalid
// configuration.
func (mc *MessageConfig) CheckAndSetDefaults() (MessageConfig, error) {
	if mc.From == "" {
		return MessageConfig{}, errors.New(
			"user-provided config does not include a \"from\" address",
		)
	}
	if len(mc.To) == 0 && len(mc.CC) == 0 && len(mc.BCC) == 0 {
		return MessageConfig{}, errors.New(
			"user-provided config does not include any recipients",
		)
	}

	c := *mc
	if c.MaxAttachmentSize == 0 {
		c.MaxAttachmentSize = defaultMaxAttachmentSize
	}
	return c, nil
}

// CheckAndSetDefaults validates m and either returns validated settings
// with defaults applied or returns an error due to an invalid
// configuration.
func (m *Meta) CheckAndSetDefaults() (Checked, error) {
	c := Checked{}

	s, err := m.SMTP.CheckAndSetDefaults()
	if err != nil {
		return Checked{}, err
	}
	c.SMTP = s

	mc, err := m.Message.CheckAndSetDefaults()
	if err != nil {
		return Checked{}, err
	}
	c.Message = mc

	return c, nil
}

// Parse generates usable configurations from possibly arbitrary user
// input. An error indicates a problem with parsing. The Reader r can be
// either JSON or YAML.
func Parse(r io.Reader) (*Meta, error) {
	var m Meta
	err := yaml.NewDecoder(r).Decode(&m)
	if err != nil {
		return &Meta{}, fmt.Errorf("can't read the config file as YAML: %v", err)
	}

	var sc smtpclient.UserConfig
	if m.SMTP == sc {
		return &Meta{}, errors.New("must include an \"smtp\" section")
	}

	if m.Message.From == "" && m.Message.Subject == "" &&
		len(m.Message.To) == 0 && len(m.Message.CC) == 0 && len(m.Message.BCC) == 0 {
		return &Meta{}, errors.New("must include a \"message\" section")
	}

	return &m, nil
}
