package service

import (
	"fmt"
	"os/exec"
	"strings"
)

// Supervisor abstracts daemontools service control for testability.
type Supervisor interface {
	// IsAvailable returns true if the svc tool is on PATH.
	IsAvailable() bool

	// Down stops the service in dir and tells its supervise process to exit.
	Down(dir string) error
}

// svcSupervisor implements Supervisor by calling the daemontools svc binary.
type svcSupervisor struct{}

// NewSupervisor returns a Supervisor that calls the real svc binary.
func NewSupervisor() Supervisor {
	return &svcSupervisor{}
}

func (s *svcSupervisor) IsAvailable() bool {
	_, err := exec.LookPath("svc")
	return err == nil
}

func (s *svcSupervisor) Down(dir string) error {
	output, err := exec.Command("svc", "-d", "-x", dir).CombinedOutput()
	if err != nil {
		return fmt.Errorf("service: svc -d -x %s: %s: %w", dir, strings.TrimSpace(string(output)), err)
	}
	return nil
}
