//go:build !windows

package installer

import (
	"fmt"
	"os"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// ExecRestarter replaces the current process image with a fresh start of the executable
type ExecRestarter struct {
	// Path of the executable to start, the running executable when empty
	Path string
	Args []string
}

func (r *ExecRestarter) Restart() error {
	path, args, err := r.command()
	if err != nil {
		return err
	}

	log.Infof("restarting %s", path)
	if err := syscall.Exec(path, args, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}

func (r *ExecRestarter) command() (string, []string, error) {
	path := r.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", nil, fmt.Errorf("locate running executable: %w", err)
		}
		path = exe
	}

	args := r.Args
	if args == nil {
		args = os.Args
	}
	return path, args, nil
}
