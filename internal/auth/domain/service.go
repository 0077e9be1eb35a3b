package domain

import (
	"context"
	"time"
)

type Service interface {
	// Authenticate resolves a raw bearer credential, either a configured API
	// key or a signed token.
	Authenticate(ctx context.Context, rawToken string) (Principal, error)
	IssueToken(subject string, role string, ttl time.Duration) (string, error)
}
