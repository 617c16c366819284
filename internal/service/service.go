package service

import (
	"bytes"
	"confpatch/internal/config"
	"confpatch/internal/errors"
	"confpatch/internal/filesystem"
	"confpatch/internal/job"
	"confpatch/internal/lock"
	"confpatch/internal/models"
	"confpatch/internal/patch"
	"context"
	stdErrors "errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContextLines = 3

// PatchService defines the interface for patching files.
type PatchService interface {
	Patch(ctx context.Context, j job.Job) (*models.PatchReport, *models.ErrorDetail)
	Run(ctx context.Context, jobs []job.Job) *models.RunReport
}

// DefaultPatchService implements PatchService on top of a FileSystemAdapter
// and a lock manager.
type DefaultPatchService struct {
	fsAdapter     filesystem.FileSystemAdapter
	lockManager   lock.LockManagerInterface
	maxFileSize   int64 // in bytes
	maxFileSizeMB int
	lockTimeout   time.Duration
	dryRun        bool
	verbose       bool
	noLock        bool
}

// NewDefaultPatchService creates a new DefaultPatchService.
func NewDefaultPatchService(
	fs filesystem.FileSystemAdapter,
	lm lock.LockManagerInterface,
	cfg *config.Config,
) (*DefaultPatchService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if fs == nil {
		return nil, fmt.Errorf("filesystem adapter is required")
	}
	if lm == nil && !cfg.NoLock {
		return nil, fmt.Errorf("lock manager is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &DefaultPatchService{
		fsAdapter:     fs,
		lockManager:   lm,
		maxFileSize:   cfg.MaxFileSize(),
		maxFileSizeMB: cfg.MaxFileSizeMB,
		lockTimeout:   cfg.LockTimeout(),
		dryRun:        cfg.DryRun,
		verbose:       cfg.Verbose,
		noLock:        cfg.NoLock,
	}, nil
}

// Run patches every job in order and stops at the first failure. Files
// patched before the failure keep their changes.
func (s *DefaultPatchService) Run(ctx context.Context, jobs []job.Job) *models.RunReport {
	report := &models.RunReport{Reports: []models.PatchReport{}}
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			report.Error = errors.NewInternalError(fmt.Sprintf("run interrupted before %s: %v", j.Name(), err))
			return report
		}
		res, errDetail := s.Patch(ctx, j)
		if res != nil {
			report.Reports = append(report.Reports, *res)
		}
		if errDetail != nil {
			log.Printf("Job %s on %s failed: %s\n", j.Name(), j.Path(), errDetail.Message)
			report.Error = errDetail
			return report
		}
	}
	report.Success = true
	return report
}

// Patch reads the target of j, applies it and writes the result back when
// the content changed. Dry runs compute the diff and leave the file alone.
func (s *DefaultPatchService) Patch(ctx context.Context, j job.Job) (*models.PatchReport, *models.ErrorDetail) {
	path := j.Path()
	if path == "" {
		return nil, errors.NewInvalidParamsError(fmt.Sprintf("Job %s has no target path.", j.Name()),
			map[string]interface{}{"job": j.Name()})
	}

	exists, fsErr := s.fsAdapter.FileExists(path)
	if fsErr != nil {
		if stdErrors.Is(fsErr, os.ErrPermission) {
			return nil, errors.NewPermissionDeniedError(path, "check_exists")
		}
		return nil, errors.NewFileSystemError(path, "check_exists", fmt.Sprintf("Error checking file existence: %v", fsErr))
	}
	if !exists {
		return nil, errors.NewFileNotFoundError(path, "check_exists")
	}

	// Patch the file a symlink points to; renaming over the link would
	// replace it with a regular file.
	resolved, err := s.fsAdapter.EvalSymlinks(path)
	if err != nil {
		return nil, s.mapFsError(path, "resolve_path", err)
	}

	stats, err := s.fsAdapter.GetFileStats(resolved)
	if err != nil {
		return nil, s.mapFsError(path, "get_stats", err)
	}
	if stats.IsDir {
		return nil, errors.NewInvalidContentError(path, "get_stats", "path is a directory")
	}
	if stats.Size > s.maxFileSize {
		return nil, errors.NewFileTooLargeError(path, s.maxFileSizeMB)
	}

	if !s.noLock {
		fileLock, lockErr := s.lockManager.AcquireLock(ctx, resolved, s.lockTimeout)
		if lockErr != nil {
			details := lockErr.Error()
			if stdErrors.Is(lockErr, lock.ErrLockTimeout) {
				details = fmt.Sprintf("another process held the lock for more than %s", s.lockTimeout)
			}
			return nil, errors.NewOperationLockFailedError(path, j.Name(), details)
		}
		defer func() {
			if err := s.lockManager.ReleaseLock(fileLock); err != nil {
				log.Printf("Error releasing lock for file '%s' in defer: %v\n", resolved, err)
			}
		}()
	}

	before, err := s.fsAdapter.ReadFileBytes(resolved)
	if err != nil {
		return nil, s.mapFsError(path, "read", err)
	}
	if !s.fsAdapter.IsValidUTF8(before) {
		return nil, errors.NewInvalidContentError(path, "read", "content is not valid UTF-8")
	}

	doc := patch.Parse(before)
	linesBefore := doc.Len()
	out, err := j.Apply(doc)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("job %s on %s: %v", j.Name(), path, err))
	}
	for _, note := range out.Notes {
		log.Printf("%s: %s: %s\n", j.Name(), path, note)
	}
	after := doc.Bytes()

	report := &models.PatchReport{
		Job:         j.Name(),
		Path:        path,
		Changed:     !bytes.Equal(before, after),
		DryRun:      s.dryRun,
		Messages:    out.Messages,
		LinesBefore: linesBefore,
		LinesAfter:  doc.Len(),
		Fallback:    out.Fallback,
	}
	if resolved != path {
		report.ResolvedPath = resolved
	}
	if report.Messages == nil {
		report.Messages = []string{}
	}

	if report.Changed && (s.dryRun || s.verbose) {
		diff, diffErr := unifiedDiff(path, before, after)
		if diffErr != nil {
			log.Printf("Could not compute diff for %s: %v\n", path, diffErr)
		}
		report.Diff = diff
	}

	if !report.Changed || s.dryRun {
		return report, nil
	}

	if err := s.fsAdapter.WriteFileBytesAtomic(resolved, after, stats.Mode); err != nil {
		return report, s.mapFsError(path, "write", err)
	}
	report.Written = true
	log.Printf("Patched %s (%d -> %d lines)\n", resolved, report.LinesBefore, report.LinesAfter)
	return report, nil
}

// mapFsError turns an adapter error into an ErrorDetail, keeping the not
// found and permission cases apart for the exit status.
func (s *DefaultPatchService) mapFsError(path, operation string, err error) *models.ErrorDetail {
	switch {
	case stdErrors.Is(err, os.ErrNotExist):
		return errors.NewFileNotFoundError(path, operation)
	case stdErrors.Is(err, os.ErrPermission):
		return errors.NewPermissionDeniedError(path, operation)
	}
	return errors.NewFileSystemError(path, operation, err.Error())
}

func unifiedDiff(path string, before, after []byte) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: path,
		ToFile:   path + " (patched)",
		Context:  diffContextLines,
	})
}

var _ PatchService = (*DefaultPatchService)(nil)
