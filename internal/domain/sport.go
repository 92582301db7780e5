package domain

// Sport is an immutable reference to an upstream event type (e.g. Soccer, Tennis).
type Sport struct {
	ExternalID string
	Name       string
}

// Competition belongs to a Sport and carries the hard-exclusion state applied by
// discovery (C2). Excluded competitions are never snapshotted or scored.
type Competition struct {
	ExternalID string
	SportID    string
	Name       string
	Country    string
	Enabled    bool
}
