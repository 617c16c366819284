package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// JobSpec names one job and its overrides. An empty Path or a missing
// parameter selects the job default.
type JobSpec struct {
	Name   string            `yaml:"name"`
	Path   string            `yaml:"path,omitempty"`
	Params map[string]string `yaml:"params,omitempty"`
}

// Plan is a YAML file listing jobs to run in order:
//
//	version: 1
//	jobs:
//	  - name: server-tokens
//	    path: /etc/nginx/nginx.conf
//	  - name: hsts
//	    params:
//	      value: max-age=86400; includeSubDomains
type Plan struct {
	Version int       `yaml:"version"`
	Jobs    []JobSpec `yaml:"jobs"`
}

// LoadPlan reads and validates a plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read plan %s: %w", path, err)
	}
	plan, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("config: plan %s: %w", path, err)
	}
	return plan, nil
}

// ParsePlan decodes plan YAML. Unknown keys are rejected so a misspelt
// parameter block does not silently fall back to defaults.
func ParsePlan(data []byte) (*Plan, error) {
	var plan Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("plan is empty")
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	plan.applyDefaults()
	if err := plan.validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (p *Plan) applyDefaults() {
	if p.Version == 0 {
		p.Version = 1
	}
	for i := range p.Jobs {
		p.Jobs[i].Name = strings.TrimSpace(p.Jobs[i].Name)
		p.Jobs[i].Path = strings.TrimSpace(p.Jobs[i].Path)
	}
}

func (p *Plan) validate() error {
	if p.Version != 1 {
		return fmt.Errorf("unsupported plan version %d", p.Version)
	}
	if len(p.Jobs) == 0 {
		return fmt.Errorf("plan has no jobs")
	}
	for i, job := range p.Jobs {
		if job.Name == "" {
			return fmt.Errorf("job %d: name is required", i+1)
		}
	}
	return nil
}
