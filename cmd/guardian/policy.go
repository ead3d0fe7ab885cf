package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mercator-hq/guardian/pkg/cli"
	"mercator-hq/guardian/pkg/detect"
	"mercator-hq/guardian/pkg/policy"
)

var policyFlags struct {
	strict bool
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Work with policy files",
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate policy files",
	Long: `Parse and compile policy files exactly as the proxy does on load and
report the resulting version and rules.

Rules for detectors the proxy does not know are reported as warnings; with
--strict they fail validation.

Examples:
  guardian policy validate policy.yaml
  guardian policy validate --strict -v policies/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPolicyValidate,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyValidateCmd)

	policyValidateCmd.Flags().BoolVar(&policyFlags.strict, "strict", false, "treat unknown detectors as errors")
}

func runPolicyValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	known := detect.MustBuiltin().Names()

	failed := 0
	for _, path := range args {
		snap, err := policy.NewFileSource(path).Load(cmd.Context())
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %v\n", err)
			continue
		}

		unknown := snap.UnknownDetectors(known)
		if policyFlags.strict && len(unknown) > 0 {
			failed++
			fmt.Fprintf(out, "✗ %s: unknown detectors %v\n", path, unknown)
			continue
		}

		fmt.Fprintf(out, "✓ %s\n", path)
		fmt.Fprintf(out, "  Version: %s\n", snap.Version)
		fmt.Fprintf(out, "  Mode:    %s\n", snap.Settings.EnforcementMode)
		fmt.Fprintf(out, "  Rules:   %d\n", len(snap.Rules()))
		if len(snap.Settings.AllowedModelPatterns) > 0 {
			fmt.Fprintf(out, "  Models:  %v\n", snap.Settings.AllowedModelPatterns)
		}
		for _, name := range unknown {
			fmt.Fprintf(out, "  warning: rule for unknown detector %q\n", name)
		}
		if verbose {
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "  DETECTOR\tSENSITIVITY\tACTION")
			for _, r := range snap.Rules() {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", r.Detector, r.Sensitivity, r.Action)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
	}

	if failed > 0 {
		return cli.Exit(cli.ExitFailure, fmt.Errorf("%d of %d policy files invalid", failed, len(args)))
	}
	return nil
}
