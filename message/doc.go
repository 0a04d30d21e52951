package message

// message builds outbound RFC 5322 email messages: an ordered header store,
// optional plain-text and HTML body parts, and file attachments. It decides
// which headers and MIME parts a message has; byte-level encoding is handled
// with the standard MIME machinery during serialization. A Message is
// consumed by the smtpclient package, which owns the network side.
