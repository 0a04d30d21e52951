package smtpclient

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

const smtpScheme string = "smtp://"

// Well-known submission ports: STARTTLS on 587, implicit SSL on 465.
const (
	defaultHost    = "smtp.gmail.com"
	defaultPort    = 587
	defaultSSLPort = 465
)

// UserConfig represents SMTP connection options as provided by the user,
// e.g., from a YAML config file. Not meant to be used for sending without
// validation via CheckAndSetDefaults.
type UserConfig struct {
	// Server address as host or host:port, with an optional smtp:// scheme.
	ServerAddress string
	Username      string
	Password      string
	// UseSSL selects implicit TLS from the first byte. When false the
	// connection is upgraded via STARTTLS before authenticating.
	UseSSL bool
}

// Config holds validated connection settings for a Client.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool
	// TLSConfig overrides the TLS settings used for the SSL or STARTTLS
	// handshake. Mostly useful for tests against servers with self-signed
	// certificates.
	TLSConfig *tls.Config
}

// UnmarshalYAML parses user-provided YAML SMTP settings, returning any
// parsing errors. Validation is left to CheckAndSetDefaults.
func (uc *UserConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	v := make(map[string]string)
	if err := unmarshal(&v); err != nil {
		return fmt.Errorf("can't parse the smtp config: %v", err)
	}

	uc.ServerAddress = v["smtpServerAddress"]
	uc.Username = v["username"]
	uc.Password = v["password"]

	s, ok := v["ssl"]
	if !ok {
		s = "false"
	}
	ssl, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("can't parse the ssl option as a boolean: %v", err)
	}
	uc.UseSSL = ssl

	return nil
}

// CheckAndSetDefaults validates uc and returns a Config with defaults
// applied: host smtp.gmail.com, port 587, or 465 when SSL is requested.
func (uc UserConfig) CheckAndSetDefaults() (Config, error) {
	if uc.Username == "" || uc.Password == "" {
		return Config{}, errors.New("must supply a username and password")
	}

	c := Config{
		Username: uc.Username,
		Password: uc.Password,
		UseSSL:   uc.UseSSL,
	}

	if uc.ServerAddress == "" {
		c.Host = defaultHost
		c.Port = submissionPort(uc.UseSSL)
		return c, nil
	}

	// Don't require the user to include a scheme. If we can't find one,
	// use one for SMTP. The regexp is constant, so the only Match error
	// path can't happen.
	ra := uc.ServerAddress
	m, _ := regexp.MatchString(fmt.Sprintf("^%v", smtpScheme), ra)
	if !m {
		ra = fmt.Sprintf("%v%v", smtpScheme, ra)
	}

	u, err := url.Parse(ra)
	if err != nil {
		return Config{}, err
	}
	if u.Hostname() == "" {
		return Config{}, fmt.Errorf("can't find a host in the server address %q", uc.ServerAddress)
	}
	c.Host = u.Hostname()

	if u.Port() == "" {
		c.Port = submissionPort(uc.UseSSL)
		return c, nil
	}
	p, err := strconv.Atoi(u.Port())
	if err != nil {
		return Config{}, err
	}
	c.Port = p

	return c, nil
}

func submissionPort(ssl bool) int {
	if ssl {
		return defaultSSLPort
	}
	return defaultPort
}
