package auth

import "context"

// Identity is the authenticated caller, as established by a Verifier.
type Identity struct {
	Username string `json:"username"`
}

type identityCtxKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFrom returns the identity attached to ctx by the auth middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(Identity)
	if !ok || identity.Username == "" {
		return Identity{}, false
	}
	return identity, true
}
