package launcher

import (
	"context"
	"os/exec"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

// shutdownGrace is how long the server gets to exit after SIGTERM before the
// process group is killed.
const shutdownGrace = 10 * time.Second

// monitor blocks until the server process exits and returns the exit status
// to propagate. If ctx is canceled first the process group receives SIGTERM,
// then SIGKILL after the grace period, and the resulting status is reported
// the same way.
func (l *Launcher) monitor(ctx context.Context, cmd *exec.Cmd) int {
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var cmdErr error
	select {
	case cmdErr = <-done:
	case <-ctx.Done():
		log.WithField("launch_id", l.launchID).Info("shutdown requested, signaling server")
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM); err != nil {
			log.WithField("launch_id", l.launchID).WithError(err).Warn("failed to signal server process group")
		}
		select {
		case cmdErr = <-done:
		case <-time.After(shutdownGrace):
			log.WithField("launch_id", l.launchID).Warn("server did not exit in time, killing process group")
			if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
				log.WithField("launch_id", l.launchID).WithError(err).Warn("failed to kill server process group")
			}
			cmdErr = <-done
		}
	}

	code, signal := extractExitInfo(cmdErr, cmd)
	entry := log.WithFields(log.Fields{"launch_id": l.launchID, "exit_code": code})
	if signal != "" {
		entry = entry.WithField("signal", signal)
	}
	if code == 0 {
		entry.Info("issuer server exited")
	} else {
		entry.Warn("issuer server exited")
	}
	return code
}

// extractExitInfo decodes how the server exited. A normal exit propagates the
// code verbatim; death by signal maps to 128+signum per shell convention.
// The signal name is returned for logging when one applies.
func extractExitInfo(cmdErr error, cmd *exec.Cmd) (int, string) {
	var ws syscall.WaitStatus
	var ok bool

	switch {
	case cmdErr != nil:
		exitErr, isExit := cmdErr.(*exec.ExitError)
		if !isExit {
			log.Warnf("unhandled command error type (%T): %v", cmdErr, cmdErr)
			return 1, ""
		}
		ws, ok = exitErr.Sys().(syscall.WaitStatus)
		if !ok {
			log.Warnf("unexpected type in ExitError.Sys(): %T", exitErr.Sys())
			return 1, ""
		}
	default:
		if cmd.ProcessState == nil {
			log.Warn("missing ProcessState for completed process, cannot extract exit info")
			return 1, ""
		}
		ws, ok = cmd.ProcessState.Sys().(syscall.WaitStatus)
		if !ok {
			log.Warnf("unexpected type in ProcessState.Sys(): %T", cmd.ProcessState.Sys())
			return 1, ""
		}
	}

	if ws.Signaled() {
		return 128 + int(ws.Signal()), ws.Signal().String()
	}
	return ws.ExitStatus(), ""
}
