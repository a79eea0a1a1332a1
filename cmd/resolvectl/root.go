package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aurelianware/hipaa-attachments-sub007/config"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/app"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/logging"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/version"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "resolvectl",
		Short: "Classify, redact and resolve rejected healthcare claims",
		Long: `resolvectl runs the claim rejection engine locally.

Payload arguments are paths to JSON files; "-" reads standard input.
Output is JSON on standard output, logs go to standard error.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logOpts := logging.OptionsFromEnv()
			if opts.logLevel != "" {
				logOpts.Level = logging.ParseLevel(opts.logLevel)
			}
			slog.SetDefault(slog.New(logging.New(cmd.ErrOrStderr(), logOpts)))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./config/config.yaml or ./config.yaml when present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		resolveCmd(opts),
		redactCmd(opts),
		validateCmd(opts),
		classifyCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

// config loads configuration once per invocation.
func (o *options) config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	res, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, err
	}
	o.cfg = res.Config
	return o.cfg, nil
}

// readInput reads a JSON document from path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// detector builds the PHI detector from the phi config section.
func (o *options) detector() (*phi.Detector, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return app.BuildDetector(cfg.PHI)
}
