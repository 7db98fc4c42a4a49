package entity

// PostStatistics represents aggregated post counts for a user's dashboard
type PostStatistics struct {
	TotalCount     int `json:"total_count"`
	DraftCount     int `json:"draft_count"`
	ScheduledCount int `json:"scheduled_count"`
	PublishedCount int `json:"published_count"`
	FailedCount    int `json:"failed_count"`
}
