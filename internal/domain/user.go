package domain

// User caches the identity of a subject that completed the OAuth login.
// Users are created once per subject and never updated.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Sub  string `json:"sub"`
}
