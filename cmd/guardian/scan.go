package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/guardian/pkg/cli"
	"mercator-hq/guardian/pkg/detect"
	"mercator-hq/guardian/pkg/policy"
	"mercator-hq/guardian/pkg/report"
	"mercator-hq/guardian/pkg/scan"
)

var scanFlags struct {
	policyFile string
	phase      string
	mode       string
	format     string
}

var scanCmd = &cobra.Command{
	Use:   "scan [text | -]",
	Short: "Scan text with the enforcement engine",
	Long: `Scan text the way the proxy scans prompts and completions, and print the
verdict, the violations per detector and the sanitized text.

Without a policy file the builtin fallback policy is used. The exit status is
3 when the text would be blocked.

Examples:
  guardian scan "my ssn is 123-45-6789"
  cat prompt.txt | guardian scan --policy policy.yaml -
  guardian scan --phase output --format json -`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanFlags.policyFile, "policy", "p", "", "policy file (builtin fallback policy when empty)")
	scanCmd.Flags().StringVar(&scanFlags.phase, "phase", "input", "scan phase (input, output)")
	scanCmd.Flags().StringVar(&scanFlags.mode, "mode", "", "override enforcement mode (BLOCKING, MONITOR)")
	scanCmd.Flags().StringVarP(&scanFlags.format, "format", "f", report.FormatTable, "output format (table, json)")
}

func runScan(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(scanFlags.format, report.FormatTable, report.FormatJSON)
	if err != nil {
		return err
	}
	phase, err := parsePhase(scanFlags.phase)
	if err != nil {
		return err
	}
	snap, err := loadScanPolicy(cmd.Context(), scanFlags.policyFile, scanFlags.mode)
	if err != nil {
		return err
	}
	text, err := cli.ReadInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	engine := scan.NewEngine(detect.MustBuiltin(), policy.NewStoreWith(snap))
	res := engine.Scan(text, phase)
	if err := report.Scan(cmd.OutOrStdout(), res, format); err != nil {
		return err
	}
	if res.Blocked() {
		return cli.Exit(cli.ExitBlocked, nil)
	}
	return nil
}

func parsePhase(s string) (scan.Phase, error) {
	switch p := scan.Phase(strings.ToUpper(strings.TrimSpace(s))); p {
	case scan.PhaseInput, scan.PhaseOutput:
		return p, nil
	}
	return "", cli.NewConfigError("phase", "must be input or output")
}

// loadScanPolicy loads the policy for an offline scan. Unlike the proxy, a
// broken policy file is an error here rather than a silent fallback.
func loadScanPolicy(ctx context.Context, path, mode string) (*policy.Snapshot, error) {
	snap := policy.Fallback()
	if path != "" {
		var err error
		snap, err = policy.NewFileSource(path).Load(ctx)
		if err != nil {
			return nil, cli.NewConfigError("policy", err.Error())
		}
	}
	if mode == "" {
		return snap, nil
	}
	m, err := policy.ParseMode(mode)
	if err != nil {
		return nil, cli.NewConfigError("mode", err.Error())
	}
	settings := snap.Settings
	settings.EnforcementMode = m
	return policy.NewSnapshot(snap.Version, settings, snap.Rules()), nil
}
