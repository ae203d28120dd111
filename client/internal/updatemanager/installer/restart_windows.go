package installer

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// ExecRestarter starts a detached copy of the executable and exits the current process
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

	cmd := exec.Command(path, args[1:]...)
	setRestartProcAttr(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", path, err)
	}

	log.Infof("restarted as pid %d, exiting", cmd.Process.Pid)
	os.Exit(0)
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
	if len(args) == 0 {
		args = os.Args
	}
	return path, args, nil
}

// setRestartProcAttr detaches the new process from the exiting one
func setRestartProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x00000008, // 0x00000008 is DETACHED_PROCESS
	}
}
