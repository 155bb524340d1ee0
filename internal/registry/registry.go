// Package registry resolves which client an inbound email belongs to,
// using the identity signals operators configure per client: authorized
// sender addresses, sender domains, and signature patterns in the body.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"smartinbox/internal/cache"
	"smartinbox/internal/models"

	"github.com/rs/zerolog"
)

// Match strengths, strongest first. When several clients match, only a
// strictly stronger signal wins; equal strength across distinct clients
// is ambiguous and resolution fails rather than guessing.
const (
	StrengthAuthorizedEmail = 3
	StrengthDomain          = 2
	StrengthSignature       = 1
)

var (
	// ErrNoMatch means no client matched any identity signal.
	ErrNoMatch = errors.New("no client matched")

	// ErrAmbiguous means two or more clients matched at equal strength.
	ErrAmbiguous = errors.New("ambiguous client match")
)

const snapshotKey = "clients-snapshot"

// Match is a successful resolution.
type Match struct {
	ClientID int64
	Strength int
}

// ClientSource provides the client set to resolve against.
type ClientSource interface {
	List(ctx context.Context) ([]models.Client, error)
}

// Resolver matches inbound emails to clients. Client data is served
// from a TTL snapshot so concurrent resolutions see a consistent set;
// client CRUD invalidates the snapshot.
type Resolver struct {
	clients ClientSource
	cache   *cache.Cache
	ttl     time.Duration
	logger  zerolog.Logger
}

// NewResolver creates a resolver over the given client source
func NewResolver(clients ClientSource, ttl time.Duration, logger zerolog.Logger) *Resolver {
	return &Resolver{
		clients: clients,
		cache:   cache.New(),
		ttl:     ttl,
		logger:  logger,
	}
}

// Invalidate drops the cached snapshot; called after client writes
func (r *Resolver) Invalidate() {
	r.cache.Delete(snapshotKey)
}

// snapshot returns the client set, from cache when fresh
func (r *Resolver) snapshot(ctx context.Context) ([]models.Client, error) {
	if cached, ok := r.cache.Get(snapshotKey); ok {
		return cached.([]models.Client), nil
	}
	clients, err := r.clients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load client snapshot: %w", err)
	}
	r.cache.Set(snapshotKey, clients, r.ttl)
	return clients, nil
}

// Resolve determines which client an email belongs to. The strongest
// signal across all clients wins; a tie at the best strength returns
// ErrAmbiguous so ambiguous tenant resolution always falls through to
// manual review.
func (r *Resolver) Resolve(ctx context.Context, email *models.InboundEmail) (Match, error) {
	sender, domain, ok := parseSender(email.Sender)
	if !ok {
		return Match{}, ErrNoMatch
	}

	clients, err := r.snapshot(ctx)
	if err != nil {
		return Match{}, err
	}

	bestStrength := 0
	var bestClients []int64
	for i := range clients {
		strength := matchStrength(&clients[i], sender, domain, email.Body)
		if strength == 0 || strength < bestStrength {
			continue
		}
		if strength > bestStrength {
			bestStrength = strength
			bestClients = bestClients[:0]
		}
		bestClients = append(bestClients, clients[i].ID)
	}

	switch len(bestClients) {
	case 0:
		return Match{}, ErrNoMatch
	case 1:
		return Match{ClientID: bestClients[0], Strength: bestStrength}, nil
	default:
		r.logger.Warn().
			Str("sender", email.Sender).
			Int("strength", bestStrength).
			Ints64("client_ids", bestClients).
			Msg("Ambiguous client resolution, escalating to manual review")
		return Match{}, ErrAmbiguous
	}
}

// matchStrength returns the strongest signal a single client produces
// for the email, or 0 when nothing matches.
func matchStrength(client *models.Client, sender, domain, body string) int {
	for _, addr := range client.AuthorizedEmails {
		if sender == addr {
			return StrengthAuthorizedEmail
		}
	}
	for _, d := range client.Domains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return StrengthDomain
		}
	}
	loweredBody := strings.ToLower(body)
	for _, pattern := range client.SignaturePatterns {
		if pattern != "" && strings.Contains(loweredBody, strings.ToLower(pattern)) {
			return StrengthSignature
		}
	}
	return 0
}

// parseSender extracts the lowercased address and domain from a sender
// header. Display-name forms like `Jane <jane@acmecorp.com>` are
// accepted; an empty or malformed sender yields ok=false.
func parseSender(raw string) (addr, domain string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", false
	}

	if parsed, err := mail.ParseAddress(raw); err == nil {
		raw = parsed.Address
	}

	raw = strings.ToLower(raw)
	at := strings.LastIndex(raw, "@")
	if at <= 0 || at == len(raw)-1 {
		return "", "", false
	}
	return raw, raw[at+1:], true
}
