// Package ingest turns raw email input (EML files or API payloads)
// into inbound email records ready for routing.
package ingest

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smartinbox/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// FromRequest builds an inbound email from an API ingest payload.
// Emails without a message id get a generated one so the record is
// always addressable.
func FromRequest(req *models.IngestRequest) *models.InboundEmail {
	messageID := strings.TrimSpace(req.MessageID)
	if messageID == "" {
		messageID = uuid.NewString()
	}
	return &models.InboundEmail{
		MessageID:   cleanMessageID(messageID),
		Sender:      strings.TrimSpace(req.Sender),
		Recipient:   strings.TrimSpace(req.Recipient),
		Subject:     req.Subject,
		Body:        req.Body,
		Attachments: pq.StringArray(req.Attachments),
		ReceivedAt:  time.Now().UTC(),
	}
}

// ParseEMLFile parses a single EML file
func ParseEMLFile(filename string) (*models.InboundEmail, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open EML file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Printf("Warning: Error closing file: %v\n", err)
		}
	}()

	return ParseMessage(file)
}

// ParseDirectory recursively parses all EML files in a directory.
// Files that fail to parse are skipped so one bad export does not
// abort a whole import.
func ParseDirectory(dirPath string) ([]*models.InboundEmail, error) {
	var emails []*models.InboundEmail

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(path), ".eml") {
			email, err := ParseEMLFile(path)
			if err != nil {
				fmt.Printf("Warning: Failed to parse %s: %v\n", path, err)
				return nil
			}
			emails = append(emails, email)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return emails, nil
}

// ParseMessage parses an RFC 5322 message from a reader.
func ParseMessage(r io.Reader) (*models.InboundEmail, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read email message: %w", err)
	}

	header := msg.Header

	messageID := cleanMessageID(header.Get("Message-ID"))
	if messageID == "" {
		messageID = uuid.NewString()
	}

	email := &models.InboundEmail{
		MessageID: messageID,
		Sender:    header.Get("From"),
		Recipient: header.Get("To"),
		Subject:   decodeHeader(header.Get("Subject")),
	}

	if dateStr := header.Get("Date"); dateStr != "" {
		if date, err := mail.ParseDate(dateStr); err == nil {
			email.ReceivedAt = date
		}
	}
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = time.Now().UTC()
	}

	body, attachments, err := extractBody(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract body: %w", err)
	}
	email.Body = body
	email.Attachments = pq.StringArray(attachments)

	return email, nil
}

// extractBody extracts the body text and attachment names from a message
func extractBody(msg *mail.Message) (string, []string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", nil, err
		}
		return string(body), nil, nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Fallback: read as plain text
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", nil, err
		}
		return string(body), nil, nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipartBody(msg.Body, params["boundary"])
	}

	body, err := extractSinglePartBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	return body, nil, err
}

// extractMultipartBody walks multipart content collecting text parts
// and attachment filenames. Attachment contents are not retained; only
// names are carried for the routing payload.
func extractMultipartBody(body io.Reader, boundary string) (string, []string, error) {
	mr := multipart.NewReader(body, boundary)
	var textParts []string
	var htmlParts []string
	var attachments []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}

		if name := part.FileName(); name != "" {
			attachments = append(attachments, name)
			continue
		}

		partContentType := part.Header.Get("Content-Type")
		mediaType, params, _ := mime.ParseMediaType(partContentType)

		switch {
		case strings.HasPrefix(mediaType, "text/plain"):
			content, err := extractSinglePartBody(part, part.Header.Get("Content-Transfer-Encoding"))
			if err == nil {
				textParts = append(textParts, content)
			}
		case strings.HasPrefix(mediaType, "text/html"):
			content, err := extractSinglePartBody(part, part.Header.Get("Content-Transfer-Encoding"))
			if err == nil {
				htmlParts = append(htmlParts, content)
			}
		case strings.HasPrefix(mediaType, "multipart/"):
			if nestedBoundary, ok := params["boundary"]; ok {
				nested, nestedAttachments, err := extractMultipartBody(part, nestedBoundary)
				if err == nil {
					if nested != "" {
						textParts = append(textParts, nested)
					}
					attachments = append(attachments, nestedAttachments...)
				}
			}
		}
	}

	// Prefer plain text over HTML
	if len(textParts) > 0 {
		return strings.Join(textParts, "\n\n"), attachments, nil
	}
	if len(htmlParts) > 0 {
		return cleanHTML(strings.Join(htmlParts, "\n\n")), attachments, nil
	}

	return "", attachments, nil
}

// extractSinglePartBody decodes a single part's transfer encoding
func extractSinglePartBody(body io.Reader, transferEncoding string) (string, error) {
	reader := body

	switch strings.ToLower(transferEncoding) {
	case "quoted-printable":
		reader = quotedprintable.NewReader(body)
	case "base64":
		reader = base64.NewDecoder(base64.StdEncoding, body)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// cleanHTML strips tags and entities from an HTML body (basic implementation)
func cleanHTML(html string) string {
	html = removeTagsWithContent(html, "script")
	html = removeTagsWithContent(html, "style")

	html = strings.ReplaceAll(html, "&nbsp;", " ")
	html = strings.ReplaceAll(html, "&lt;", "<")
	html = strings.ReplaceAll(html, "&gt;", ">")
	html = strings.ReplaceAll(html, "&amp;", "&")
	html = strings.ReplaceAll(html, "&quot;", "\"")
	html = strings.ReplaceAll(html, "&#39;", "'")
	html = strings.ReplaceAll(html, "<br>", "\n")
	html = strings.ReplaceAll(html, "<br/>", "\n")
	html = strings.ReplaceAll(html, "<br />", "\n")
	html = strings.ReplaceAll(html, "</p>", "\n\n")
	html = strings.ReplaceAll(html, "</div>", "\n")

	var result strings.Builder
	inTag := false
	for _, char := range html {
		if char == '<' {
			inTag = true
			continue
		}
		if char == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(char)
		}
	}

	text := strings.TrimSpace(result.String())
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}

// removeTagsWithContent removes HTML tags and their content
func removeTagsWithContent(html, tag string) string {
	openTag := "<" + tag
	closeTag := "</" + tag + ">"

	for {
		start := strings.Index(strings.ToLower(html), openTag)
		if start == -1 {
			break
		}
		end := strings.Index(strings.ToLower(html[start:]), closeTag)
		if end == -1 {
			break
		}
		end += start + len(closeTag)
		html = html[:start] + html[end:]
	}

	return html
}

// decodeHeader decodes MIME encoded headers
func decodeHeader(header string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// cleanMessageID removes < and > from Message-IDs
func cleanMessageID(msgID string) string {
	msgID = strings.TrimPrefix(strings.TrimSpace(msgID), "<")
	msgID = strings.TrimSuffix(msgID, ">")
	return msgID
}
