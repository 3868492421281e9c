package launcher

import (
	"context"
	"os"
	"os/exec"
	"syscall"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pid-provider/issuerctl/internal/config"
)

// Launcher brings up the issuer server process in the foreground and reports
// its exit status. Each Launcher performs one independent launch attempt;
// nothing is shared between attempts, so a second launch fails only where the
// server itself fails (e.g. the bind address is still held).
type Launcher struct {
	cfg      *config.Config
	launchID string

	// Stdout and Stderr receive the server's output. Defaults to the
	// launcher's own stdio.
	Stdout *os.File
	Stderr *os.File
}

// New creates a Launcher for one launch attempt. The launch ID only
// correlates log lines; it carries no other meaning.
func New(cfg *config.Config) *Launcher {
	return &Launcher{
		cfg:      cfg,
		launchID: uuid.New().String(),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// ID returns the launch ID.
func (l *Launcher) ID() string {
	return l.launchID
}

// ServerArgs builds the argument vector for the server command:
// --app <app> run --cert=<cert> --key=<key> --host=<host>.
// The host is the configured value verbatim.
func (l *Launcher) ServerArgs() []string {
	return []string{
		"--app", l.cfg.App,
		"run",
		"--cert=" + l.cfg.CertFile,
		"--key=" + l.cfg.KeyFile,
		"--host=" + l.cfg.Host,
	}
}

// Environment assembles the child environment: virtual environment activation
// first, then the CA bundle export. A failure at either step means nothing is
// exported and the server is never spawned.
func (l *Launcher) Environment() ([]string, error) {
	env := os.Environ()

	if l.cfg.VenvDir != "" {
		var err error
		env, err = activate(l.cfg.VenvDir, env)
		if err != nil {
			return nil, err
		}
	}

	bundle, err := resolveCABundle(l.cfg.ResolvedCABundle())
	if err != nil {
		return nil, err
	}
	env = setEnv(env, CABundleEnv, bundle)

	return env, nil
}

// Run executes the launch sequence and blocks for the lifetime of the server
// process. The returned int is the exit status to propagate: the server's own
// exit code, or 128+signum if the server died to a signal. A non-nil error
// means the launch failed before or at spawn and no status is available.
//
// Canceling ctx forwards SIGTERM to the server's process group, escalating to
// SIGKILL after a grace period; the resulting status is still reported.
func (l *Launcher) Run(ctx context.Context) (int, error) {
	if err := l.cfg.Validate(); err != nil {
		return 0, NewErrorWithErr(ErrConfig, "invalid launch configuration", err)
	}

	env, err := l.Environment()
	if err != nil {
		return 0, err
	}

	command, err := lookPath(env, l.cfg.ServerCommand)
	if err != nil {
		return 0, err
	}

	args := l.ServerArgs()
	log.WithFields(log.Fields{
		"launch_id": l.launchID,
		"command":   command,
		"host":      l.cfg.Host,
	}).Info("starting issuer server")

	cmd := exec.Command(command, args...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	// Own process group so a shutdown signal reaches the server and any
	// children it forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		switch e := err.(type) {
		case *exec.Error:
			return 0, NewErrorWithErr(ErrSpawn, "server command not found", e)
		case *os.PathError:
			return 0, NewErrorWithErr(ErrSpawn, "server command not executable", e)
		default:
			return 0, NewErrorWithErr(ErrInternal, "failed to start server process", err)
		}
	}

	return l.monitor(ctx, cmd), nil
}
