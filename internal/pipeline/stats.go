package pipeline

// RunStats tracks aggregate counters and byte totals across a batch run.
// Converted counts files with at least one converted stream; Copied counts
// pure remuxes.
type RunStats struct {
	Total            int
	Converted        int
	Copied           int
	Skipped          int
	Failed           int
	TotalInputBytes  int64
	TotalOutputBytes int64
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// Processed returns the number of files that reached a final state.
func (s *RunStats) Processed() int {
	return s.Converted + s.Copied + s.Skipped + s.Failed
}

// OK reports whether no file failed.
func (s *RunStats) OK() bool { return s.Failed == 0 }
