package auth

import "context"

// StaticResolver resolves tokens from a fixed token-to-username table.
// Intended for development and tests.
type StaticResolver struct {
	tokens map[string]string
}

// NewStaticResolver copies tokens into a new resolver.
func NewStaticResolver(tokens map[string]string) *StaticResolver {
	m := make(map[string]string, len(tokens))
	for token, user := range tokens {
		if token != "" && user != "" {
			m[token] = user
		}
	}
	return &StaticResolver{tokens: m}
}

// UsernameFor implements Resolver.
func (s *StaticResolver) UsernameFor(ctx context.Context, token string) (string, bool) {
	user, ok := s.tokens[token]
	return user, ok
}
