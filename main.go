package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/vinimiraa/EmailSender/message"
	"github.com/vinimiraa/EmailSender/smtpclient"
	"github.com/vinimiraa/EmailSender/userconfig"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Log with filename and line number. This writes to stderr, so it should
	// be thread safe.
	log.Logger = log.With().Caller().Logger()

	// Intercept interrupts so we can get more visibility into them.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func(c chan os.Signal) {
		<-c
		log.Info().Msg("interrupt: exiting")
		os.Exit(0)
	}(sigCh)

	configPath := flag.String(
		"config",
		"./config.yaml",
		"path to a JSON or YAML file containing your configuration",
	)
	dryRun := flag.Bool(
		"dryrun",
		false,
		"print the serialized message to stdout instead of sending it",
	)
	level := flag.String(
		"level",
		"info",
		`log level: "info", "debug", or "warn"`,
	)
	flag.Parse()

	switch *level {
	case "debug":
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	case "warn":
		log.Logger = log.Logger.Level(zerolog.WarnLevel)
	default:
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	f, err := os.Open(*configPath)
	if err != nil {
		log.Error().
			Str("config-path", *configPath).
			Err(err).
			Msg("We can't open the application config file")
		os.Exit(1)
	}

	config, err := userconfig.Parse(f)
	f.Close()
	if err != nil {
		log.Error().
			Err(err).
			Msg("Problem parsing your config")
		os.Exit(1)
	}

	checked, err := config.CheckAndSetDefaults()
	if err != nil {
		log.Error().
			Err(err).
			Msg("Problem validating your config")
		os.Exit(1)
	}

	log.Info().Str("configPath", *configPath).Msg("successfully validated the config")

	msg := buildMessage(checked.Message)

	if *dryRun {
		s, err := msg.Serialize()
		if err != nil {
			log.Error().Err(err).Msg("can't serialize the message")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stdout, s)
		return
	}

	client := smtpclient.NewClientFromConfig(checked.SMTP)
	err = client.WithConnection(func(c *smtpclient.Client) error {
		return c.Send(msg)
	})
	if err != nil {
		log.Error().Err(err).Msg("error sending the email")
		os.Exit(1)
	}
}

// buildMessage turns the validated message config into a ready-to-send
// Message.
func buildMessage(mc userconfig.MessageConfig) *message.Message {
	msg := message.New()
	msg.SetDate(time.Time{})
	msg.SetMessageID("", "")
	msg.SetFrom(mc.From)
	msg.SetRecipients(mc.To, mc.CC, mc.BCC)
	msg.SetSubject(mc.Subject)
	msg.SetContent(mc.Text, mc.HTML)
	if mc.ListUnsubscribe != "" {
		msg.SetListUnsubscribe(mc.ListUnsubscribe)
	}
	msg.SetMaxAttachmentSize(int64(mc.MaxAttachmentSize))
	msg.AddAttachments(mc.Attachments...)
	return msg
}
