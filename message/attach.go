package message

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Attachment is one file attachment: a filename for the receiving client,
// a MIME content type, and the raw content.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Extensions whose MIME type guess implies a content encoding rather than a
// content type (mirroring the encodings_map consulted by type-guessing
// implementations). Files with these extensions are attached as opaque
// bytes.
var encodedExts = map[string]bool{
	".br":  true,
	".bz2": true,
	".gz":  true,
	".xz":  true,
	".Z":   true,
}

// AddAttachments reads each path in full and appends it to the message as
// an attachment part named after the file's base name, in argument order.
// Paths that do not exist, are not regular files, exceed the configured
// size cap, or fail to read are skipped with a warning — sending a partial
// attachment set is allowed.
func (m *Message) AddAttachments(paths ...string) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			log.Warn().Str("path", p).Msg("attachment file not found, skipping it")
			continue
		}
		if m.maxAttachmentSize > 0 && info.Size() > m.maxAttachmentSize {
			log.Warn().
				Str("path", p).
				Int64("size", info.Size()).
				Int64("limit", m.maxAttachmentSize).
				Msg("attachment exceeds the size limit, skipping it")
			continue
		}
		content, err := os.ReadFile(p)
		if err != nil {
			log.Warn().Str("path", p).Err(err).Msg("can't read attachment file, skipping it")
			continue
		}
		name := filepath.Base(p)
		m.attachments = append(m.attachments, Attachment{
			Filename:    name,
			ContentType: typeByFilename(name),
			Content:     content,
		})
		log.Debug().Str("filename", name).Msg("attachment added")
	}
}

// Attachments returns the attachments in the order they were added.
func (m *Message) Attachments() []Attachment {
	return m.attachments
}

// SetMaxAttachmentSize caps the size of files accepted by AddAttachments.
// Zero means no cap.
func (m *Message) SetMaxAttachmentSize(n int64) {
	m.maxAttachmentSize = n
}

// typeByFilename guesses a MIME type from the file's extension, falling
// back to application/octet-stream when the extension is unknown or
// implies a non-identity content encoding.
func typeByFilename(name string) string {
	ext := filepath.Ext(name)
	if encodedExts[ext] {
		return "application/octet-stream"
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return "application/octet-stream"
	}
	return t
}
