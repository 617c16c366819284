package models

// JobInfo describes a registered job for the list command.
type JobInfo struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	DefaultPath string            `json:"default_path,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
	// Steps lists the jobs a composite job runs, in order.
	Steps []string `json:"steps,omitempty"`
}

// ListJobsResponse is the output of the list command.
type ListJobsResponse struct {
	Jobs       []JobInfo `json:"jobs"`
	TotalCount int       `json:"total_count"`
}
