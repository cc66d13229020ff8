package domain

// QueueStats aggregates same-day ticket counts for a category or agent.
type QueueStats struct {
	Waiting           int
	Serving           int
	Completed         int
	NoShow            int
	Cancelled         int
	AvgServiceSeconds float64
}
