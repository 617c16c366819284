package models

// PatchReport describes the outcome of one job against one file.
type PatchReport struct {
	// Job is the registered job name, e.g. "server-tokens".
	Job string `json:"job"`
	// Path is the target as configured.
	Path string `json:"path"`
	// ResolvedPath is the file actually written when Path is a symlink.
	ResolvedPath string `json:"resolved_path,omitempty"`
	// Changed reports whether the patched content differs from the file.
	Changed bool `json:"changed"`
	// Written is false for dry runs and unchanged files.
	Written bool `json:"written"`
	DryRun  bool `json:"dry_run,omitempty"`
	// Messages are the confirmation lines printed on stdout.
	Messages []string `json:"messages"`
	// Diff is a unified diff, filled for dry runs and in verbose mode.
	Diff        string `json:"diff,omitempty"`
	LinesBefore int    `json:"lines_before"`
	LinesAfter  int    `json:"lines_after"`
	// Fallback is set when the structural parser gave up and the line scan ran.
	Fallback bool `json:"fallback,omitempty"`
}

// RunReport collects the reports of a run. A failing job ends the run, so
// Error describes the last entry of Reports or the job that never produced one.
type RunReport struct {
	Success bool          `json:"success"`
	Reports []PatchReport `json:"reports"`
	Error   *ErrorDetail  `json:"error,omitempty"`
}
