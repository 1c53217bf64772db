package role

import "time"

// AllowedSession is an owner-curated allow-list entry for a session code.
type AllowedSession struct {
	ID          string    `json:"id"`
	SessionCode string    `json:"sessionCode"`
	AddedBy     string    `json:"addedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}
