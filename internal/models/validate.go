package models

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	repoRegex  = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+/[a-zA-Z0-9_.\-]+$`)
)

// ValidationError describes a rejected write with a field-level reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidEmailAddress reports whether s looks like an email address.
func ValidEmailAddress(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidRepository reports whether s is an owner/repo slug.
func ValidRepository(s string) bool {
	return repoRegex.MatchString(s)
}

// Validate checks a client payload. The client must have a name and at
// least one identity signal, or it can never be matched automatically.
func (r *ClientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return Invalid("name", "name is required")
	}
	if len(r.Domains) == 0 && len(r.SignaturePatterns) == 0 && len(r.AuthorizedEmails) == 0 {
		return Invalid("domains", "client needs at least one domain, signature pattern, or authorized email")
	}
	for _, addr := range r.AuthorizedEmails {
		if !ValidEmailAddress(addr) {
			return Invalid("authorized_emails", fmt.Sprintf("invalid email address: %s", addr))
		}
	}
	if r.GithubRepository != nil && *r.GithubRepository != "" && !ValidRepository(*r.GithubRepository) {
		return Invalid("github_repository", "repository must be in owner/repo format")
	}
	for field, contact := range map[string]*string{
		"technical_contact":      r.TechnicalContact,
		"commercial_contact":     r.CommercialContact,
		"administrative_contact": r.AdministrativeContact,
	} {
		if contact != nil && *contact != "" && !ValidEmailAddress(*contact) {
			return Invalid(field, "contact must be a valid email address")
		}
	}
	return nil
}

// Validate checks a rule payload. The destination format must match the
// action kind: owner/repo for create-issue, email syntax for forward-email.
func (r *RuleRequest) Validate() error {
	if r.ClientID <= 0 {
		return Invalid("client_id", "client_id is required")
	}
	if !r.Classification.Valid() {
		return Invalid("classification", "classification must be technical, commercial, or administrative")
	}
	if !r.Action.Valid() {
		return Invalid("action", "action must be create-issue or forward-email")
	}
	switch r.Action {
	case ActionCreateIssue:
		if !ValidRepository(r.Destination) {
			return Invalid("destination", "destination must be an owner/repo slug for create-issue")
		}
	case ActionForwardEmail:
		if !ValidEmailAddress(r.Destination) {
			return Invalid("destination", "destination must be an email address for forward-email")
		}
	}
	if r.Priority <= 0 {
		return Invalid("priority", "priority must be a positive integer")
	}
	return nil
}

// Validate checks a review payload. Approving without a selected client
// or classification must fail; the server enforces this independently
// of any UI.
func (r *ReviewRequest) Validate() error {
	switch r.Decision {
	case DecisionApprove:
		if r.ClientID == nil || *r.ClientID <= 0 {
			return Invalid("client_id", "approve requires a client")
		}
		if r.Classification == nil || !r.Classification.Valid() {
			return Invalid("classification", "approve requires a valid classification")
		}
	case DecisionReject:
		// No further fields required.
	default:
		return Invalid("decision", "decision must be approve or reject")
	}
	return nil
}
