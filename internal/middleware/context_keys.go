package middleware

// ContextKey is a private key type to avoid context collisions.
type ContextKey string

const (
	// UserCtxKey holds the authenticated *entity.User.
	UserCtxKey = ContextKey("user")
)
