package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/app"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/resolver"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/scenario"
)

// errUnsafe is returned by validate when violations were found.
var errUnsafe = errors.New("redaction check failed")

func resolveCmd(opts *options) *cobra.Command {
	var (
		live  bool
		allow []string
	)
	cmd := &cobra.Command{
		Use:   "resolve <payload.json|->",
		Short: "Resolve a claim rejection and print the suggestions",
		Long: `Resolve classifies the rejection and prints a resolution result.

Mock mode is the default and never leaves the process. With --live the
redacted payload is sent to the configured backend; backend.api_key (or
BACKEND_API_KEY) must be set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload core.RejectionPayload
			if err := readInput(cmd, args[0], &payload); err != nil {
				return err
			}
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			detector, err := opts.detector()
			if err != nil {
				return err
			}

			lc := app.LiveConfig(cfg)
			if cmd.Flags().Changed("allow") {
				lc.AllowedFields = allow
			}

			engine := resolver.New(resolver.WithDetector(detector))
			defer func() { _ = engine.Close() }()

			result, err := engine.Resolve(cmd.Context(), &payload, !live, lc)
			if err != nil {
				return fmt.Errorf("resolution failed: %s", phi.RedactPatterns(err.Error()))
			}
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "call the configured completion backend")
	cmd.Flags().StringSliceVar(&allow, "allow", nil, "payload paths sent unredacted (overrides phi.allowed_fields)")
	return cmd
}

func redactCmd(opts *options) *cobra.Command {
	var (
		allow   []string
		visible int
		drop    bool
	)
	cmd := &cobra.Command{
		Use:   "redact <document.json|->",
		Short: "Print a PHI-safe copy of a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if visible < 0 {
				return fmt.Errorf("--visible must not be negative")
			}
			var doc any
			if err := readInput(cmd, args[0], &doc); err != nil {
				return err
			}
			detector, err := opts.detector()
			if err != nil {
				return err
			}
			safe := detector.CreateSafePayload(doc, allow, phi.MaskOptions{
				VisibleSuffixLen: visible,
				DropFields:       drop,
			})
			return writeJSON(cmd, safe)
		},
	}
	cmd.Flags().StringSliceVar(&allow, "allow", nil, "field paths kept verbatim, e.g. payer,claims[0].errorCode")
	cmd.Flags().IntVar(&visible, "visible", 0, "trailing characters left visible on masked strings")
	cmd.Flags().BoolVar(&drop, "drop", false, "remove PHI fields instead of masking them")
	return cmd
}

func validateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document.json|->",
		Short: "Check that a JSON document carries no unredacted PHI",
		Long:  "Validate prints every violation and exits non-zero when any is found.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc any
			if err := readInput(cmd, args[0], &doc); err != nil {
				return err
			}
			detector, err := opts.detector()
			if err != nil {
				return err
			}
			valid, violations := detector.ValidateRedaction(doc)
			if violations == nil {
				violations = []string{}
			}
			if err := writeJSON(cmd, map[string]any{"valid": valid, "violations": violations}); err != nil {
				return err
			}
			if !valid {
				return fmt.Errorf("%w: %d violation(s)", errUnsafe, len(violations))
			}
			return nil
		},
	}
}

func classifyCmd() *cobra.Command {
	var code, desc string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the rejection scenario for an error code and description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd, map[string]string{"scenario": scenario.Classify(code, desc).String()})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "payer error code")
	cmd.Flags().StringVar(&desc, "desc", "", "payer error description")
	return cmd
}
