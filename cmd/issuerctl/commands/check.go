package commands

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pid-provider/issuerctl/internal/launcher"
	"github.com/pid-provider/issuerctl/internal/preflight"
)

var checkCmd = &cobra.Command{
	Use:   "check [--config <file>]",
	Short: "Validate the launch configuration without starting the server",
	Long: `Run the launch preflight and report the result without starting the server:
the virtual environment must be activatable, the certificate and key must
parse as a matching pair with a supported algorithm and curve, and the CA
bundle must load. Exits non-zero on the first failing check.`,
	Example:      `$ issuerctl check --config /etc/issuer/launch.yaml`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		leaf, err := preflight.CheckKeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return fmt.Errorf("certificate check failed: %w", err)
		}
		log.WithField("subject", leaf.Subject.String()).Info("certificate pair OK")

		if err := preflight.CheckCertAlgorithm(leaf); err != nil {
			return fmt.Errorf("certificate check failed: %w", err)
		}
		log.WithField("algorithm", leaf.SignatureAlgorithm.String()).Info("certificate algorithm OK")

		if _, err := preflight.LoadCABundle(cfg.ResolvedCABundle()); err != nil {
			return fmt.Errorf("CA bundle check failed: %w", err)
		}
		log.Info("CA bundle OK")

		// Environment covers activation and the REQUESTS_CA_BUNDLE export
		// without spawning anything.
		env, err := launcher.New(cfg).Environment()
		if err != nil {
			return fmt.Errorf("environment check failed: %w", err)
		}
		log.WithField("vars", len(env)).Info("launch environment OK")

		fmt.Printf("launch configuration OK: %s %s\n",
			cfg.ServerCommand, cfg.Host)
		return nil
	},
}
