package models

// IngestRequest is the payload for submitting an email for routing.
type IngestRequest struct {
	MessageID   string   `json:"message_id"`
	Sender      string   `json:"sender"`
	Recipient   string   `json:"recipient"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments,omitempty"`
}

// ClientRequest is the payload for creating or updating a client.
type ClientRequest struct {
	Name                  string   `json:"name"`
	Domains               []string `json:"domains"`
	SignaturePatterns     []string `json:"signature_patterns"`
	AuthorizedEmails      []string `json:"authorized_emails"`
	GithubRepository      *string  `json:"github_repository"`
	TechnicalContact      *string  `json:"technical_contact"`
	CommercialContact     *string  `json:"commercial_contact"`
	AdministrativeContact *string  `json:"administrative_contact"`
}

// RuleRequest is the payload for creating or updating a routing rule.
type RuleRequest struct {
	ClientID       int64          `json:"client_id"`
	Classification Classification `json:"classification"`
	Action         ActionKind     `json:"action"`
	Destination    string         `json:"destination"`
	Priority       int            `json:"priority"`
	Active         *bool          `json:"active"`
}

// ReviewRequest is the payload for recording an operator decision on a
// pending email.
type ReviewRequest struct {
	Decision       DecisionKind    `json:"decision"`
	ClientID       *int64          `json:"client_id"`
	Classification *Classification `json:"classification"`
	Notes          string          `json:"notes"`
}
