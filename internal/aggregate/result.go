package aggregate

// Result is the structured outcome of one operation run. Failures that mean
// "nothing matched" set Success false with a Reason instead of returning an
// error; errors are reserved for configuration and resource problems.
type Result struct {
	Operation    string   `json:"operation"`
	Success      bool     `json:"success"`
	Reason       string   `json:"reason,omitempty"`
	Files        int      `json:"files"`
	FilesSkipped int      `json:"files_skipped"`
	RowsRead     int64    `json:"rows_read"`
	RowsSkipped  int64    `json:"rows_skipped"`
	PointsBinned int64    `json:"points_binned"`
	OutputRows   int      `json:"output_rows"`
	Outputs      []string `json:"outputs,omitempty"`
}

// Fail marks the result as a structured failure.
func (r *Result) Fail(reason string) *Result {
	r.Success = false
	r.Reason = reason
	return r
}
