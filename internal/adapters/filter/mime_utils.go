package filter

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
)

// maxMultipartDepth bounds recursion into nested multipart bodies
const maxMultipartDepth = 5

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages the text/plain parts are used, falling back to
// text/html parts when no plain text exists.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	header := textproto.MIMEHeader(msg.Header)
	return extractText(header, msg.Body, 0)
}

func extractText(header textproto.MIMEHeader, body io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" || depth >= maxMultipartDepth {
		content, err := io.ReadAll(decodeTransfer(header, body))
		if err != nil {
			return "", err
		}
		return string(content), nil
	}

	var plain, html bytes.Buffer
	mr := multipart.NewReader(body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever was read before the broken part
			break
		}

		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		switch {
		case strings.HasPrefix(partType, "multipart/"):
			nested, err := extractText(part.Header, part, depth+1)
			if err == nil && nested != "" {
				plain.WriteString(nested)
				plain.WriteString("\n")
			}
		case partType == "text/plain" || partType == "":
			if isAttachment(part) {
				continue
			}
			content, err := io.ReadAll(decodeTransfer(part.Header, part))
			if err != nil {
				continue
			}
			plain.Write(content)
			plain.WriteString("\n")
		case partType == "text/html":
			if isAttachment(part) {
				continue
			}
			content, err := io.ReadAll(decodeTransfer(part.Header, part))
			if err != nil {
				continue
			}
			html.Write(content)
			html.WriteString("\n")
		}
		// Skip other parts (attachments, images, etc.)
	}

	if plain.Len() > 0 {
		return plain.String(), nil
	}
	return html.String(), nil
}

func isAttachment(part *multipart.Part) bool {
	disposition, _, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	return err == nil && disposition == "attachment"
}

// decodeTransfer undoes the Content-Transfer-Encoding of a body.
// multipart.Part already decodes quoted-printable on its own.
func decodeTransfer(header textproto.MIMEHeader, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	default:
		return body
	}
}

// decodeEncodedHeader decodes RFC 2047 encoded-words such as =?UTF-8?B?...?=
func decodeEncodedHeader(value string) (string, error) {
	dec := new(mime.WordDecoder)
	return dec.DecodeHeader(value)
}
