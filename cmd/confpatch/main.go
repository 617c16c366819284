package main

import (
	"confpatch/internal/config"
	"confpatch/internal/errors"
	"confpatch/internal/filesystem"
	"confpatch/internal/job"
	"confpatch/internal/lock"
	"confpatch/internal/models"
	"confpatch/internal/service"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the exit status. Confirmation
// lines and reports go to stdout, everything else to stderr.
func run(args []string, stdout, stderr io.Writer) int {
	// 1. Parse flags
	opts, command, err := config.ParseArgs(args)
	if err != nil {
		if config.IsHelp(err) {
			fmt.Fprintln(stdout, err)
			return errors.ExitOK
		}
		fmt.Fprintln(stderr, err)
		return errors.ExitUsage
	}
	cfg := &opts.Config

	// 2. Initialize Logger
	initializeLogger(stderr, cfg.Verbose)

	// 3. Validate Config
	if err := cfg.Validate(); err != nil {
		return fail(stdout, cfg, errors.NewInvalidParamsError(fmt.Sprintf("Configuration error: %v", err), nil))
	}
	if cfg.Verbose {
		logEffectiveConfig(cfg)
	}

	if command == config.CommandList {
		return listJobs(stdout, cfg.JSON)
	}

	// 4. Build jobs
	specs, errDetail := commandSpecs(opts, command)
	if errDetail != nil {
		return fail(stdout, cfg, errDetail)
	}
	jobs, err := job.NewAll(specs)
	if err != nil {
		return fail(stdout, cfg, errors.NewInvalidParamsError(err.Error(), map[string]interface{}{"command": command}))
	}

	// 5. Initialize Dependencies
	fsAdapter := filesystem.NewDefaultFileSystemAdapter()
	var lockManager lock.LockManagerInterface
	if !cfg.NoLock {
		lockManager = lock.NewLockManager(cfg.LockDir)
	}
	patchService, err := service.NewDefaultPatchService(fsAdapter, lockManager, cfg)
	if err != nil {
		log.Printf("CRITICAL: Failed to initialize patch service: %v\n", err)
		return errors.ExitFailure
	}

	// 6. Run, giving up on SIGINT/SIGTERM between jobs and while waiting for locks
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	report := patchService.Run(ctx, jobs)

	printReport(stdout, cfg, report)
	return errors.MapErrorToExitCode(report.Error)
}

// commandSpecs returns the job specs selected by the command line.
func commandSpecs(opts *config.Options, command string) ([]config.JobSpec, *models.ErrorDetail) {
	switch command {
	case config.CommandHealthEndpoint:
		return []config.JobSpec{opts.HealthEndpoint.Spec()}, nil
	case config.CommandNginxRedirect:
		return []config.JobSpec{opts.NginxRedirect.Spec()}, nil
	case config.CommandServerTokens:
		return []config.JobSpec{opts.ServerTokens.Spec()}, nil
	case config.CommandHSTS:
		return []config.JobSpec{opts.HSTS.Spec()}, nil
	case config.CommandNginxSecurity:
		return []config.JobSpec{opts.NginxSecurity.Spec()}, nil
	case config.CommandRun:
		if opts.Run.Plan == "" {
			return job.DefaultPlan(), nil
		}
		plan, err := config.LoadPlan(opts.Run.Plan)
		if err != nil {
			return nil, errors.NewInvalidParamsError(err.Error(), map[string]interface{}{"plan": opts.Run.Plan})
		}
		return plan.Jobs, nil
	}
	return nil, errors.NewInvalidParamsError(fmt.Sprintf("unknown command %q", command), nil)
}

func listJobs(stdout io.Writer, asJSON bool) int {
	resp := models.ListJobsResponse{Jobs: []models.JobInfo{}}
	for _, def := range job.Definitions() {
		resp.Jobs = append(resp.Jobs, models.JobInfo{
			Name:        def.Name,
			Description: def.Description,
			DefaultPath: def.DefaultPath,
			Params:      def.Params,
			Steps:       def.Steps,
		})
	}
	resp.TotalCount = len(resp.Jobs)

	if asJSON {
		return writeJSON(stdout, resp)
	}
	for _, info := range resp.Jobs {
		fmt.Fprintf(stdout, "%-16s %s\n", info.Name, info.Description)
		if info.DefaultPath != "" {
			fmt.Fprintf(stdout, "%-16s path: %s\n", "", info.DefaultPath)
		}
		if len(info.Steps) > 0 {
			fmt.Fprintf(stdout, "%-16s steps: %v\n", "", info.Steps)
		}
	}
	return errors.ExitOK
}

func printReport(stdout io.Writer, cfg *config.Config, report *models.RunReport) {
	if cfg.JSON {
		writeJSON(stdout, report)
		return
	}
	for _, r := range report.Reports {
		if r.Diff != "" {
			fmt.Fprint(stdout, r.Diff)
		}
		for _, msg := range r.Messages {
			fmt.Fprintln(stdout, msg)
		}
	}
	if report.Error != nil {
		log.Printf("ERROR: %s\n", report.Error.Message)
	}
}

// fail reports an error that happened before any job ran.
func fail(stdout io.Writer, cfg *config.Config, errDetail *models.ErrorDetail) int {
	if cfg.JSON {
		writeJSON(stdout, &models.RunReport{Reports: []models.PatchReport{}, Error: errDetail})
	} else {
		log.Printf("ERROR: %s\n", errDetail.Message)
	}
	return errors.MapErrorToExitCode(errDetail)
}

func writeJSON(stdout io.Writer, v interface{}) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("Error encoding JSON output: %v\n", err)
		return errors.ExitFailure
	}
	return errors.ExitOK
}

func initializeLogger(out io.Writer, verbose bool) {
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if verbose {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
}

func logEffectiveConfig(cfg *config.Config) {
	log.Println("Effective configuration:")
	log.Printf("  Dry run: %t\n", cfg.DryRun)
	log.Printf("  Max File Size (MB): %d\n", cfg.MaxFileSizeMB)
	if cfg.NoLock {
		log.Println("  Locking: disabled")
		return
	}
	lockDir := cfg.LockDir
	if lockDir == "" {
		lockDir = lock.DefaultDir()
	}
	log.Printf("  Lock Directory: %s\n", lockDir)
	log.Printf("  Lock Timeout (sec): %d\n", cfg.LockTimeoutSec)
}
