// Package job binds the patch engines to concrete files. Each job is an
// explicit configuration (target path plus parameters) instead of a script
// with hard-coded paths; the registry supplies the historical defaults.
package job

import (
	"confpatch/internal/config"
	"confpatch/internal/patch"
	"fmt"
	"sort"
	"strings"
)

// Outcome is what a job reports after editing a document.
type Outcome struct {
	// Messages are the confirmation lines for stdout.
	Messages []string
	// Notes explain no-op decisions and fallbacks; they go to the log.
	Notes    []string
	Fallback bool
}

// Job edits one file.
type Job interface {
	Name() string
	Path() string
	Apply(doc *patch.Document) (*Outcome, error)
}

// Definition describes a registered job.
type Definition struct {
	Name        string
	Description string
	DefaultPath string
	// Params holds every accepted parameter with its default.
	Params map[string]string
	// Steps is set for composite jobs, which expand into other jobs.
	Steps []string
	// StepMessages replaces the confirmation lines of the named steps.
	StepMessages map[string][]string

	build    func(path string, params map[string]string) Job
	validate func(params map[string]string) error
}

var registry = map[string]*Definition{}

func register(def *Definition) {
	registry[def.Name] = def
}

// Lookup returns the definition registered under name.
func Lookup(name string) (*Definition, bool) {
	def, ok := registry[name]
	return def, ok
}

// Definitions returns every registered job sorted by name.
func Definitions() []*Definition {
	defs := make([]*Definition, 0, len(registry))
	for _, def := range registry {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names returns the registered job names in order.
func Names() []string {
	var names []string
	for _, def := range Definitions() {
		names = append(names, def.Name)
	}
	return names
}

// DefaultPlan returns one spec per file job, health route first and the
// nginx fixes after it.
func DefaultPlan() []config.JobSpec {
	return []config.JobSpec{
		{Name: config.CommandHealthEndpoint},
		{Name: config.CommandNginxRedirect},
		{Name: config.CommandServerTokens},
		{Name: config.CommandHSTS},
	}
}

// New builds the jobs for spec. Composite jobs expand into their steps.
func New(spec config.JobSpec) ([]Job, error) {
	def, ok := Lookup(spec.Name)
	if !ok {
		return nil, fmt.Errorf("unknown job %q (available: %s)", spec.Name, strings.Join(Names(), ", "))
	}
	params, err := def.resolve(spec.Params)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", spec.Name, err)
	}
	if len(def.Steps) > 0 {
		if spec.Path != "" {
			return nil, fmt.Errorf("job %s: patches several files, set the step paths through params instead of path", spec.Name)
		}
		return expand(def, params)
	}
	path := spec.Path
	if path == "" {
		path = def.DefaultPath
	}
	return []Job{def.build(path, params)}, nil
}

// NewAll builds the jobs of every spec in order.
func NewAll(specs []config.JobSpec) ([]Job, error) {
	var jobs []Job
	for _, spec := range specs {
		built, err := New(spec)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, built...)
	}
	return jobs, nil
}

// resolve merges overrides into the defaults and rejects unknown keys.
func (d *Definition) resolve(overrides map[string]string) (map[string]string, error) {
	params := make(map[string]string, len(d.Params))
	for k, v := range d.Params {
		params[k] = v
	}
	var unknown []string
	for k, v := range overrides {
		if _, ok := d.Params[k]; !ok {
			unknown = append(unknown, k)
			continue
		}
		params[k] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown parameter(s) %s", strings.Join(unknown, ", "))
	}
	if d.validate != nil {
		if err := d.validate(params); err != nil {
			return nil, err
		}
	}
	return params, nil
}

// expand builds the steps of a composite job. Parameter "<step>.<key>"
// feeds key of that step and "<step>.path" its target.
func expand(def *Definition, params map[string]string) ([]Job, error) {
	var jobs []Job
	for _, step := range def.Steps {
		spec := config.JobSpec{Name: step}
		prefix := step + "."
		for k, v := range params {
			if !strings.HasPrefix(k, prefix) || v == "" {
				continue
			}
			key := strings.TrimPrefix(k, prefix)
			if key == "path" {
				spec.Path = v
				continue
			}
			if spec.Params == nil {
				spec.Params = map[string]string{}
			}
			spec.Params[key] = v
		}
		built, err := New(spec)
		if err != nil {
			return nil, err
		}
		if msgs, ok := def.StepMessages[step]; ok {
			for i, j := range built {
				built[i] = &relabeled{Job: j, messages: msgs}
			}
		}
		jobs = append(jobs, built...)
	}
	return jobs, nil
}

// relabeled runs a step with the confirmation lines of its composite.
type relabeled struct {
	Job
	messages []string
}

func (r *relabeled) Apply(doc *patch.Document) (*Outcome, error) {
	out, err := r.Job.Apply(doc)
	if err != nil {
		return nil, err
	}
	out.Messages = append([]string(nil), r.messages...)
	return out, nil
}
