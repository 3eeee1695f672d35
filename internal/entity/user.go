package entity

// User - a persisted account. Linked to a player only for stats
// attribution, never for move authorization.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
