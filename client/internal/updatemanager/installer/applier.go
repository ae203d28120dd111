package installer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/inconshreveable/go-update"
	log "github.com/sirupsen/logrus"

	nberrors "github.com/gitify-app/updater/client/errors"
)

// Applier installs an artifact over the running application
type Applier interface {
	Apply(artifact []byte) error
}

// Restarter relaunches the application after an install
type Restarter interface {
	Restart() error
}

// SelfApplier replaces an executable in place with the artifact bytes.
// The previous binary is kept next to the target and restored if the swap fails.
type SelfApplier struct {
	// TargetPath is the executable to replace, the running executable when empty
	TargetPath string
	// KeepBackup leaves the previous binary as .<name>.old after a successful swap
	KeepBackup bool
}

// NewSelfApplier returns an Applier replacing the running executable
func NewSelfApplier() *SelfApplier {
	return &SelfApplier{}
}

func (a *SelfApplier) Apply(artifact []byte) error {
	if len(artifact) == 0 {
		return errors.New("artifact is empty")
	}

	target, err := a.targetPath()
	if err != nil {
		return err
	}

	opts := update.Options{
		TargetPath: target,
		TargetMode: 0o755,
	}
	if a.KeepBackup {
		opts.OldSavePath = backupPath(target)
	}

	if err := opts.CheckPermissions(); err != nil {
		return fmt.Errorf("no write access to %s: %w", target, err)
	}

	log.Infof("replacing %s with the downloaded artifact", target)
	if err := update.Apply(bytes.NewReader(artifact), opts); err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			log.Errorf("failed to roll back %s: %v", target, rerr)
			return fmt.Errorf("apply update: %w (rollback failed: %v)", err, rerr)
		}
		return fmt.Errorf("apply update: %w", err)
	}
	return nil
}

func (a *SelfApplier) targetPath() (string, error) {
	if a.TargetPath != "" {
		return a.TargetPath, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate running executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve running executable: %w", err)
	}
	return resolved, nil
}

func stagedPath(target string) string {
	return filepath.Join(filepath.Dir(target), fmt.Sprintf(".%s.new", filepath.Base(target)))
}

func backupPath(target string) string {
	return filepath.Join(filepath.Dir(target), fmt.Sprintf(".%s.old", filepath.Base(target)))
}

// CleanUpInstallerFiles removes staged and backup binaries left behind by previous installs
func (a *SelfApplier) CleanUpInstallerFiles() error {
	target, err := a.targetPath()
	if err != nil {
		return err
	}

	var merr *multierror.Error
	for _, leftover := range []string{stagedPath(target), backupPath(target)} {
		if err := os.Remove(leftover); err != nil && !os.IsNotExist(err) {
			merr = multierror.Append(merr, fmt.Errorf("remove %s: %w", leftover, err))
			continue
		}
	}
	return nberrors.FormatErrorOrNil(merr)
}
