package entities

// ModeratorCredential is loaded once at startup and never mutated.
type ModeratorCredential struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
}
