package parser

// CreateMatchRequest is a validated create_match payload.
type CreateMatchRequest struct {
	MatchID string
	Players []string
	// Seed overrides the configured world seed when set.
	Seed *int64
}
