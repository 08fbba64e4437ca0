package auth

// User is the account record backing login and token claims.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
}
