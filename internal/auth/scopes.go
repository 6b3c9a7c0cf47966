package auth

// Known OAuth scopes used by the physique services.
const (
	ScopeRead  = "physique:read"
	ScopeWrite = "physique:write"
	ScopeAdmin = "physique:admin"
)
