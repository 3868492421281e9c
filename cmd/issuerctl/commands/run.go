package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pid-provider/issuerctl/internal/launcher"
	"github.com/pid-provider/issuerctl/internal/preflight"
)

// ExitStatusError carries the launched server's exit status so main can
// propagate it verbatim instead of the generic failure status.
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("server exited with status %d", e.Code)
}

var runCmd = &cobra.Command{
	Use:   "run [--config <file>] [--cert <file>] [--key <file>] [--host <addr>]",
	Short: "Launch the issuer web server in the foreground",
	Long: `Launch the issuer web server in the foreground. The launch sequence is:

  1. Activate the configured virtual environment so the server command
     resolves from it.
  2. Resolve the CA bundle to an absolute path and export it as
     REQUESTS_CA_BUNDLE in the server's environment.
  3. Run the server command with the configured application entry point,
     TLS certificate and key, and bind host.
  4. Block until the server exits and propagate its exit status.

Any failure before the server starts is fatal to the whole launch; there are
no retries.`,
	Example:      `$ issuerctl run --host 192.168.134.214`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := preflight.Run(cfg); err != nil {
			return fmt.Errorf("preflight failed: %w", err)
		}

		code, err := launcher.New(cfg).Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("launch failed: %w", err)
		}
		if code != 0 {
			return &ExitStatusError{Code: code}
		}
		return nil
	},
}
