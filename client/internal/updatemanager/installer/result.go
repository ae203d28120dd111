package installer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	resultFile = "result.json"
)

// Result is the outcome of an install, persisted across the restart that follows it
type Result struct {
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Version    string    `json:"version,omitempty"`
	ExecutedAt time.Time `json:"executed_at"`
}

// ResultHandler handles reading and writing install results
type ResultHandler struct {
	fs         afero.Fs
	resultFile string
}

// NewResultHandler creates a new handler with the given directory path
// The result file will be created as "result.json" in the specified directory
func NewResultHandler(dir string) *ResultHandler {
	return NewResultHandlerWithFs(afero.NewOsFs(), dir)
}

// NewResultHandlerWithFs creates a handler on top of the given filesystem
func NewResultHandlerWithFs(fs afero.Fs, dir string) *ResultHandler {
	// do not care if already exists
	_ = fs.MkdirAll(dir, 0o700)

	return &ResultHandler{
		fs:         fs,
		resultFile: filepath.Join(dir, resultFile),
	}
}

// Path returns the location of the result file
func (rh *ResultHandler) Path() string {
	return rh.resultFile
}

// Write writes the install result to a file for the next start to read
func (rh *ResultHandler) Write(result Result) error {
	log.Infof("write out install result to: %s", rh.resultFile)
	dir := filepath.Dir(rh.resultFile)
	if err := rh.fs.MkdirAll(dir, 0o755); err != nil {
		log.Errorf("failed to create directory %s: %v", dir, err)
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	// Write to a temporary file first, then rename for atomic operation
	tmpPath := rh.resultFile + ".tmp"
	if err := afero.WriteFile(rh.fs, tmpPath, data, 0o644); err != nil {
		log.Errorf("failed to create temp file: %s", err)
		return err
	}

	if err := rh.fs.Rename(tmpPath, rh.resultFile); err != nil {
		if cleanupErr := rh.fs.Remove(tmpPath); cleanupErr != nil {
			log.Warnf("Failed to remove temp result file: %v", cleanupErr)
		}
		return err
	}

	return nil
}

// Take reads and removes a previously written result. ok is false when there is none.
func (rh *ResultHandler) Take() (result Result, ok bool, err error) {
	result, err = rh.tryReadResult()
	if errors.Is(err, os.ErrNotExist) {
		return Result{}, false, nil
	}
	if cerr := rh.Cleanup(); cerr != nil {
		log.Warnf("failed to cleanup result file: %v", cerr)
	}
	if err != nil {
		return Result{}, false, err
	}
	return result, true, nil
}

// Cleanup removes the result file if it exists
func (rh *ResultHandler) Cleanup() error {
	err := rh.fs.Remove(rh.resultFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	log.Debugf("delete install result file: %s", rh.resultFile)
	return nil
}

// tryReadResult attempts to read and validate the result file
func (rh *ResultHandler) tryReadResult() (Result, error) {
	data, err := afero.ReadFile(rh.fs, rh.resultFile)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("invalid result format: %w", err)
	}

	return result, nil
}
