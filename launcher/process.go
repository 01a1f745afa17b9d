package launcher

import (
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
)

// A Command describes a process to start.
type Command struct {
	Path string
	Args []string
	Dir  string
}

// A Process is a started instance.
type Process interface {
	Pid() int
	Kill() error
}

// A Starter starts processes.
type Starter interface {
	Start(cmd Command) (Process, error)
}

// ExecStarter starts processes with os/exec.
type ExecStarter struct{}

// Start starts the process without waiting for it.
func (ExecStarter) Start(c Command) (Process, error) {
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "starting %s", c.Path)
	}

	go func() { _ = cmd.Wait() }()

	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

// Kill terminates the process and the processes it started.
func (p *execProcess) Kill() error {
	killChildren(int32(p.Pid()))
	return p.cmd.Process.Kill()
}

// killChildren kills the descendants of a process. Wine and the game
// launcher spawn the actual game as a child.
func killChildren(pid int32) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return
	}

	children, err := proc.Children()
	if err != nil {
		return
	}

	for _, child := range children {
		killChildren(child.Pid)
		_ = child.Kill()
	}
}

// instanceCommand builds the command line of an instance listening on port.
func instanceCommand(install Install, s Settings, port int32) Command {
	args := []string{
		"-listen", s.Host,
		"-port", strconv.Itoa(int(port)),
		"-displayMode", "0",
		"-windowx", strconv.Itoa(s.Window.X),
		"-windowy", strconv.Itoa(s.Window.Y),
		"-windowWidth", strconv.Itoa(s.Window.W),
		"-windowHeight", strconv.Itoa(s.Window.H),
	}

	cmd := Command{Path: install.Exe, Args: args, Dir: install.Support}
	if s.UseWine {
		cmd.Path = "wine"
		cmd.Args = append([]string{install.Exe}, args...)
	}

	return cmd
}
