package model

// TaskStats holds aggregate task counts by status.
type TaskStats struct {
	TotalTodo       int `json:"total_todo"`
	TotalInProgress int `json:"total_in_progress"`
	TotalReview     int `json:"total_review"`
	TotalDone       int `json:"total_done"`
	TotalBlocked    int `json:"total_blocked"`
}

// Total returns the number of tasks across all statuses.
func (s *TaskStats) Total() int {
	return s.TotalTodo + s.TotalInProgress + s.TotalReview + s.TotalDone + s.TotalBlocked
}

// PercentDone returns the share of done tasks as an integer percentage,
// rounded down. An empty project is 0% done.
func (s *TaskStats) PercentDone() int {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return s.TotalDone * 100 / total
}
