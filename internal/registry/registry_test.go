package registry

import (
	"context"
	"testing"
	"time"

	"smartinbox/internal/models"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticClients struct {
	clients []models.Client
	calls   int
}

func (s *staticClients) List(ctx context.Context) ([]models.Client, error) {
	s.calls++
	return s.clients, nil
}

func testClients() []models.Client {
	return []models.Client{
		{
			ID:               1,
			Name:             "Acme",
			Domains:          pq.StringArray{"acmecorp.com"},
			AuthorizedEmails: pq.StringArray{"ceo@partner.org"},
		},
		{
			ID:                2,
			Name:              "Globex",
			Domains:           pq.StringArray{"globex.io"},
			SignaturePatterns: pq.StringArray{"Globex Industries Ltd"},
		},
	}
}

func newTestResolver(clients []models.Client) (*Resolver, *staticClients) {
	source := &staticClients{clients: clients}
	return NewResolver(source, time.Minute, zerolog.Nop()), source
}

func TestResolve_AuthorizedEmailBeatsDomain(t *testing.T) {
	clients := testClients()
	// Sender's domain belongs to Globex, but the exact address is
	// authorized for Acme; the stronger signal wins.
	clients[1].Domains = pq.StringArray{"partner.org"}
	resolver, _ := newTestResolver(clients)

	match, err := resolver.Resolve(context.Background(), &models.InboundEmail{
		Sender: "CEO@partner.org",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), match.ClientID)
	assert.Equal(t, StrengthAuthorizedEmail, match.Strength)
}

func TestResolve_DomainMatch(t *testing.T) {
	resolver, _ := newTestResolver(testClients())

	tests := []struct {
		name   string
		sender string
	}{
		{name: "plain address", sender: "jane@acmecorp.com"},
		{name: "uppercase address", sender: "JANE@ACMECORP.COM"},
		{name: "display name form", sender: "Jane Doe <jane@acmecorp.com>"},
		{name: "subdomain suffix", sender: "ops@mail.acmecorp.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := resolver.Resolve(context.Background(), &models.InboundEmail{Sender: tt.sender})
			require.NoError(t, err)
			assert.Equal(t, int64(1), match.ClientID)
			assert.Equal(t, StrengthDomain, match.Strength)
		})
	}
}

func TestResolve_SignaturePattern(t *testing.T) {
	resolver, _ := newTestResolver(testClients())

	match, err := resolver.Resolve(context.Background(), &models.InboundEmail{
		Sender: "someone@unknown-domain.net",
		Body:   "Hello,\nplease see attached.\n--\nGLOBEX INDUSTRIES LTD",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), match.ClientID)
	assert.Equal(t, StrengthSignature, match.Strength)
}

func TestResolve_SharedDomainIsAmbiguous(t *testing.T) {
	clients := testClients()
	clients[0].Domains = pq.StringArray{"sharedvendor.com"}
	clients[1].Domains = pq.StringArray{"sharedvendor.com"}
	resolver, _ := newTestResolver(clients)

	_, err := resolver.Resolve(context.Background(), &models.InboundEmail{
		Sender: "x@sharedvendor.com",
	})
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestResolve_StrongerSignalBreaksTie(t *testing.T) {
	clients := testClients()
	clients[0].Domains = pq.StringArray{"sharedvendor.com"}
	clients[1].Domains = pq.StringArray{"sharedvendor.com"}
	clients[0].AuthorizedEmails = pq.StringArray{"x@sharedvendor.com"}
	resolver, _ := newTestResolver(clients)

	match, err := resolver.Resolve(context.Background(), &models.InboundEmail{
		Sender: "x@sharedvendor.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), match.ClientID)
	assert.Equal(t, StrengthAuthorizedEmail, match.Strength)
}

func TestResolve_NoMatch(t *testing.T) {
	resolver, _ := newTestResolver(testClients())

	tests := []struct {
		name   string
		sender string
		body   string
	}{
		{name: "unknown sender", sender: "stranger@nowhere.net"},
		{name: "empty sender", sender: ""},
		{name: "malformed address", sender: "not-an-address"},
		{name: "missing local part", sender: "@acmecorp.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.Resolve(context.Background(), &models.InboundEmail{
				Sender: tt.sender,
				Body:   tt.body,
			})
			assert.ErrorIs(t, err, ErrNoMatch)
		})
	}
}

func TestResolve_SnapshotCaching(t *testing.T) {
	resolver, source := newTestResolver(testClients())

	for i := 0; i < 3; i++ {
		_, err := resolver.Resolve(context.Background(), &models.InboundEmail{Sender: "jane@acmecorp.com"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, source.calls, "snapshot should be served from cache")

	resolver.Invalidate()
	_, err := resolver.Resolve(context.Background(), &models.InboundEmail{Sender: "jane@acmecorp.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "invalidation should force a reload")
}
