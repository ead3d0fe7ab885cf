package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/guardian/pkg/audit"
	"mercator-hq/guardian/pkg/cli"
	"mercator-hq/guardian/pkg/config"
	"mercator-hq/guardian/pkg/report"
)

var auditFlags struct {
	jsonlPath     string
	sqlitePath    string
	sqliteDriver  string
	transactionID string
	userID        string
	eventType     string
	status        string
	since         string
	until         string
	limit         int
	format        string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log",
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit entries",
	Long: `Read audit entries from the JSONL log or the SQLite mirror and print the
ones matching the filters.

Without --jsonl or --sqlite the JSONL path from the configuration is read.
--since and --until take RFC 3339 timestamps or a duration relative to now.

Examples:
  # Everything recorded for one transaction
  guardian audit query --transaction 6f1c...

  # Blocked inputs in the last day as CSV
  guardian audit query --sqlite data/audit.db --event INPUT_SCAN --status BLOCKED --since 24h --format csv`,
	Args: cobra.NoArgs,
	RunE: runAuditQuery,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd)

	f := auditQueryCmd.Flags()
	f.StringVar(&auditFlags.jsonlPath, "jsonl", "", "JSONL audit log path")
	f.StringVar(&auditFlags.sqlitePath, "sqlite", "", "SQLite audit mirror path")
	f.StringVar(&auditFlags.sqliteDriver, "sqlite-driver", audit.DriverPureGo, "SQLite driver (sqlite, sqlite3)")
	f.StringVarP(&auditFlags.transactionID, "transaction", "t", "", "filter by transaction id")
	f.StringVarP(&auditFlags.userID, "user", "u", "", "filter by user id")
	f.StringVar(&auditFlags.eventType, "event", "", "filter by event type (INPUT_SCAN, UPSTREAM_CALL, OUTPUT_SCAN, TRANSACTION_COMPLETE)")
	f.StringVar(&auditFlags.status, "status", "", "filter by status (SAFE, REDACTED, BLOCKED, FAILED, SUCCESS)")
	f.StringVar(&auditFlags.since, "since", "", "only entries at or after this time")
	f.StringVar(&auditFlags.until, "until", "", "only entries before this time")
	f.IntVarP(&auditFlags.limit, "limit", "n", 0, "maximum number of entries (0 for all)")
	f.StringVarP(&auditFlags.format, "format", "f", report.FormatTable, "output format (table, json, csv)")
}

func runAuditQuery(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.format, report.FormatTable, report.FormatJSON, report.FormatCSV)
	if err != nil {
		return err
	}
	filter, err := auditFilter(time.Now())
	if err != nil {
		return err
	}

	var entries []audit.Entry
	switch {
	case auditFlags.jsonlPath != "" && auditFlags.sqlitePath != "":
		return cli.NewConfigError("source", "use either --jsonl or --sqlite, not both")
	case auditFlags.sqlitePath != "":
		entries, err = querySQLite(cmd, auditFlags.sqlitePath, auditFlags.sqliteDriver, filter)
	default:
		path := auditFlags.jsonlPath
		if path == "" {
			cfg, cfgErr := config.LoadConfigWithEnvOverrides(cfgFile)
			if cfgErr != nil {
				return cli.NewConfigError("config", cfgErr.Error())
			}
			path = cfg.Audit.JSONLPath
		}
		entries, err = audit.ReadJSONL(path, filter)
	}
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}
	return report.Audit(cmd.OutOrStdout(), entries, format)
}

func querySQLite(cmd *cobra.Command, path, driver string, filter audit.Filter) ([]audit.Entry, error) {
	// Opening would create an empty database.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	cfg := audit.DefaultSQLiteConfig()
	cfg.Path = path
	cfg.Driver = driver
	store, err := audit.NewSQLiteStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Query(cmd.Context(), filter)
}

func auditFilter(now time.Time) (audit.Filter, error) {
	f := audit.Filter{
		TransactionID: auditFlags.transactionID,
		UserID:        auditFlags.userID,
		EventType:     audit.EventType(auditFlags.eventType),
		Status:        audit.Status(auditFlags.status),
		Limit:         auditFlags.limit,
	}
	if auditFlags.limit < 0 {
		return f, cli.NewConfigError("limit", "must not be negative")
	}
	var err error
	if f.Since, err = parseTimeFlag(auditFlags.since, now); err != nil {
		return f, cli.NewConfigError("since", err.Error())
	}
	if f.Until, err = parseTimeFlag(auditFlags.until, now); err != nil {
		return f, cli.NewConfigError("until", err.Error())
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && !f.Since.Before(f.Until) {
		return f, cli.NewConfigError("since", "must be before --until")
	}
	return f, nil
}

// parseTimeFlag accepts an RFC 3339 timestamp or a duration back from now.
func parseTimeFlag(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return time.Time{}, fmt.Errorf("%q is neither an RFC 3339 time nor a positive duration", s)
	}
	return now.Add(-d), nil
}
