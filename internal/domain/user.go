package domain

// User is display-only reference data joined into leaderboard rows.
// It is never written by the trade lifecycle.
type User struct {
	ID          string
	DisplayName string
	AvatarURL   string
	Handle      string
}
