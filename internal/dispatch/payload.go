package dispatch

import (
	"fmt"
	"strings"

	"smartinbox/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// IssueTitle builds the tracker issue title for an email.
func IssueTitle(clientName string, email *models.InboundEmail) string {
	subject := email.Subject
	if subject == "" {
		subject = "No subject"
	}
	return fmt.Sprintf("[%s] %s", clientName, subject)
}

// IssueBody renders the email as a markdown issue body.
func IssueBody(clientName string, email *models.InboundEmail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Email from %s\n\n", clientName)
	fmt.Fprintf(&b, "**From:** %s\n", email.Sender)
	fmt.Fprintf(&b, "**Date:** %s\n", email.ReceivedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "**Subject:** %s\n", email.Subject)
	if email.Classification != nil {
		fmt.Fprintf(&b, "**Category:** %s\n", titleCaser.String(string(*email.Classification)))
	}

	b.WriteString("\n## Content\n\n")
	if email.Body != "" {
		b.WriteString(email.Body)
	} else {
		b.WriteString("No content")
	}

	if len(email.Attachments) > 0 {
		b.WriteString("\n\n## Attachments\n\n")
		for _, attachment := range email.Attachments {
			fmt.Fprintf(&b, "- %s\n", attachment)
		}
	}

	return b.String()
}
