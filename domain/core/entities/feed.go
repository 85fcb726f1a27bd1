package entities

import "time"

// FeedSubscription tracks one external publication feed a project follows.
// IsLoading and Error are transient fetch state: they never survive a reload
// and are cleared by post-load sanitation.
type FeedSubscription struct {
	URL         string     `json:"url"`
	Title       string     `json:"title,omitempty"`
	LastFetched *time.Time `json:"lastFetched,omitempty"`
	IsLoading   bool       `json:"isLoading,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// ClearTransientState resets in-flight fetch state after a reload
func (f *FeedSubscription) ClearTransientState() {
	f.IsLoading = false
	f.Error = ""
}
