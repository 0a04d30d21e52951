package smtpclient

// smtpclient is responsible for delivering a message.Message to an SMTP
// server: connecting, negotiating TLS (implicit SSL or STARTTLS) and
// authentication, submitting the message in a single transaction, and
// disconnecting. The wire protocol itself is delegated to the dialer; this
// package owns the sequence and the error mapping.
