package commands

import (
	"github.com/spf13/cobra"

	"github.com/pid-provider/issuerctl/internal/config"
)

var (
	// Shared flags across commands
	cfgFile           string
	flagServerCommand string
	flagApp           string
	flagCert          string
	flagKey           string
	flagHost          string
	flagVenv          string
	flagCABundle      string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "issuerctl",
	Short: "issuerctl launches the PID issuer web server with TLS enabled",
	Long: `A launcher for the PID issuer web service. It activates the service's
virtual environment, exports REQUESTS_CA_BUNDLE for the service's outbound
HTTPS calls, and runs the web server in the foreground with the configured
TLS certificate, key, and bind host. The server's exit status becomes
issuerctl's exit status.`,
	Example: `  $ issuerctl run
  $ issuerctl run --host 192.168.134.214 --cert cert.pem --key key.pem
  $ issuerctl check --config /etc/issuer/launch.yaml`,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile,
		"config", "", "Path to a YAML launch configuration file. Flags override file values.")
	RootCmd.PersistentFlags().StringVar(&flagServerCommand,
		"server-command", config.DefaultServerCommand, "The executable that serves the application.")
	RootCmd.PersistentFlags().StringVar(&flagApp,
		"app", config.DefaultApp, "The application entry-point identifier passed to the server.")
	RootCmd.PersistentFlags().StringVar(&flagCert,
		"cert", config.DefaultCertFile, "Path to the TLS certificate file presented by the server.")
	RootCmd.PersistentFlags().StringVar(&flagKey,
		"key", config.DefaultKeyFile, "Path to the TLS private key file paired with the certificate.")
	RootCmd.PersistentFlags().StringVar(&flagHost,
		"host", config.DefaultHost, "The bind host handed to the server, passed through verbatim.")
	RootCmd.PersistentFlags().StringVar(&flagVenv,
		"venv", config.DefaultVenvDir, "The virtual environment directory. Empty launches in the caller's environment.")
	RootCmd.PersistentFlags().StringVar(&flagCABundle,
		"ca-bundle", "", "CA bundle exported via REQUESTS_CA_BUNDLE. Defaults to the certificate file.")

	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(checkCmd)
}

// loadConfig builds the effective launch configuration: defaults, then the
// config file if one was given, then any flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("server-command") {
		cfg.ServerCommand = flagServerCommand
	}
	if flags.Changed("app") {
		cfg.App = flagApp
	}
	if flags.Changed("cert") {
		cfg.CertFile = flagCert
	}
	if flags.Changed("key") {
		cfg.KeyFile = flagKey
	}
	if flags.Changed("host") {
		cfg.Host = flagHost
	}
	if flags.Changed("venv") {
		cfg.VenvDir = flagVenv
	}
	if flags.Changed("ca-bundle") {
		cfg.CABundle = flagCABundle
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
