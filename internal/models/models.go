package models

import (
	"time"

	"github.com/lib/pq"
)

// Classification is the intent label assigned to an inbound email.
// The set is closed so rule matching can be exhaustive.
type Classification string

const (
	ClassificationTechnical      Classification = "technical"
	ClassificationCommercial     Classification = "commercial"
	ClassificationAdministrative Classification = "administrative"
)

// Classifications lists every valid label.
func Classifications() []Classification {
	return []Classification{
		ClassificationTechnical,
		ClassificationCommercial,
		ClassificationAdministrative,
	}
}

// Valid reports whether the label is one of the known classifications.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationTechnical, ClassificationCommercial, ClassificationAdministrative:
		return true
	}
	return false
}

// ActionKind identifies what a routing rule does with an email.
type ActionKind string

const (
	ActionCreateIssue  ActionKind = "create-issue"
	ActionForwardEmail ActionKind = "forward-email"
)

// Valid reports whether the action kind is known.
func (a ActionKind) Valid() bool {
	return a == ActionCreateIssue || a == ActionForwardEmail
}

// RoutingStatus tracks where an email is in its routing lifecycle.
// Emails are never deleted; they only transition between statuses.
type RoutingStatus string

const (
	StatusUnrouted          RoutingStatus = "unrouted"
	StatusAutoRouted        RoutingStatus = "auto-routed"
	StatusPendingReview     RoutingStatus = "pending-review"
	StatusRejected          RoutingStatus = "rejected"
	StatusRoutedAfterReview RoutingStatus = "routed-after-review"
)

// ReviewReason explains why an email was escalated to manual review.
type ReviewReason string

const (
	ReasonUnresolvedClient ReviewReason = "unresolved-client"
	ReasonLowConfidence    ReviewReason = "low-confidence"
	ReasonNoMatchingRule   ReviewReason = "no-matching-rule"
	ReasonDispatchFailed   ReviewReason = "dispatch-failed"
)

// DecisionKind is an operator's verdict on a pending email.
type DecisionKind string

const (
	DecisionApprove DecisionKind = "approve"
	DecisionReject  DecisionKind = "reject"
)

// Client represents a tenant whose inbound email this system triages.
// Domains and authorized emails are stored lowercased and deduplicated.
type Client struct {
	ID                    int64          `db:"id" json:"id"`
	Name                  string         `db:"name" json:"name"`
	Domains               pq.StringArray `db:"domains" json:"domains"`
	SignaturePatterns     pq.StringArray `db:"signature_patterns" json:"signature_patterns"`
	AuthorizedEmails      pq.StringArray `db:"authorized_emails" json:"authorized_emails"`
	GithubRepository      *string        `db:"github_repository" json:"github_repository,omitempty"`
	TechnicalContact      *string        `db:"technical_contact" json:"technical_contact,omitempty"`
	CommercialContact     *string        `db:"commercial_contact" json:"commercial_contact,omitempty"`
	AdministrativeContact *string        `db:"administrative_contact" json:"administrative_contact,omitempty"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`
}

// HasIdentitySignal reports whether the client can ever be matched
// automatically (at least one domain, pattern, or authorized email).
func (c *Client) HasIdentitySignal() bool {
	return len(c.Domains) > 0 || len(c.SignaturePatterns) > 0 || len(c.AuthorizedEmails) > 0
}

// RoutingRule is a per-client, per-classification directive specifying
// which action to take and where. Multiple active rules may match the
// same (client, classification); priority breaks ties.
type RoutingRule struct {
	ID             int64          `db:"id" json:"id"`
	ClientID       int64          `db:"client_id" json:"client_id"`
	Classification Classification `db:"classification" json:"classification"`
	Action         ActionKind     `db:"action" json:"action"`
	Destination    string         `db:"destination" json:"destination"`
	Priority       int            `db:"priority" json:"priority"`
	Active         bool           `db:"active" json:"active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// InboundEmail is an email received for triage, together with the
// routing state accumulated while processing it.
type InboundEmail struct {
	ID              int64           `db:"id" json:"id"`
	MessageID       string          `db:"message_id" json:"message_id"`
	Sender          string          `db:"sender" json:"sender"`
	Recipient       string          `db:"recipient" json:"recipient"`
	Subject         string          `db:"subject" json:"subject"`
	Body            string          `db:"body" json:"body"`
	Attachments     pq.StringArray  `db:"attachments" json:"attachments,omitempty"`
	ReceivedAt      time.Time       `db:"received_at" json:"received_at"`
	ClientID        *int64          `db:"client_id" json:"client_id,omitempty"`
	Classification  *Classification `db:"classification" json:"classification,omitempty"`
	Confidence      float64         `db:"confidence" json:"confidence"`
	Status          RoutingStatus   `db:"status" json:"status"`
	ReviewReason    *ReviewReason   `db:"review_reason" json:"review_reason,omitempty"`
	ActionReference *string         `db:"action_reference" json:"action_reference,omitempty"`
	ProcessedAt     *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// ReviewDecision records an operator's verdict on a pending email.
// Decisions are immutable once recorded.
type ReviewDecision struct {
	ID             int64           `db:"id" json:"id"`
	EmailID        int64           `db:"email_id" json:"email_id"`
	Decision       DecisionKind    `db:"decision" json:"decision"`
	ClientID       *int64          `db:"client_id" json:"client_id,omitempty"`
	Classification *Classification `db:"classification" json:"classification,omitempty"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
