package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/jsdabond/internal/analysis/curve"
	"github.com/seenimoa/jsdabond/internal/pipeline"
	"github.com/seenimoa/jsdabond/internal/report"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download one day's reference prices with English headers",
	Long: `Download the reference price file of one trade date, parse it and print
it with English column names.

Examples:
  jsdabond fetch --date 2026-10-16
  jsdabond fetch --format csv --out prices.csv
  jsdabond fetch --raw-headers --limit 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		ds, err := loadDataset(cmd, refresh)
		if err != nil {
			return fail(err)
		}

		t := ds.Table
		if raw, _ := cmd.Flags().GetBool("raw-headers"); raw {
			t = ds.Raw
		}
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")

		w, closeOut, err := output(cmd)
		if err != nil {
			return err
		}
		defer closeOut()

		if len(ds.Unmapped) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: columns without English name: %s\n", strings.Join(ds.Unmapped, ", "))
		}

		switch format {
		case "csv":
			return t.Head(limitOrAll(limit)).WriteCSV(w)
		case "json":
			return writeJSON(w, t.Head(limitOrAll(limit)).Records())
		case "table", "":
			fmt.Fprintf(w, "Date: %s  Rows: %d  Source: %s\n\n", utils.FormatDateJST(ds.Date), ds.Table.Len(), ds.URL)
			return report.WriteText(w, t, limit)
		default:
			return fmt.Errorf("unknown format %q (table, csv, json)", format)
		}
	},
}

func init() {
	addDateFlag(fetchCmd)
	fetchCmd.Flags().String("format", "table", "output format: table, csv, json")
	fetchCmd.Flags().Bool("raw-headers", false, "keep the original Japanese column names")
	fetchCmd.Flags().Int("limit", 20, "maximum rows to print (0 = all)")
	fetchCmd.Flags().Bool("refresh", false, "bypass the in-memory cache")
	fetchCmd.Flags().StringP("out", "o", "", "write to file instead of stdout")
}

// --- Issues Command ---

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "List the issuers in one day's file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd, false)
		if err != nil {
			return fail(err)
		}
		sums := curve.Summaries(ds.Quotes)
		if len(sums) == 0 {
			return fail(curve.ErrNoIssues)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), sums)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Issuers on %s: %d\n", utils.FormatDateJST(ds.Date), len(sums))
		fmt.Fprintln(tw, "Issue Name\tBonds\tMin Yield\tMax Yield")
		for _, s := range sums {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Name, s.Bonds,
				nullString(s.MinYield.Valid, s.MinYield.Decimal.String()),
				nullString(s.MaxYield.Valid, s.MaxYield.Decimal.String()))
		}
		return tw.Flush()
	},
}

func init() {
	addDateFlag(issuesCmd)
	issuesCmd.Flags().Bool("json", false, "print JSON")
}

// --- Curve Command ---

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Show the yield curve of one issuer",
	Long: `Show Average Compound Yield against years to maturity for the bonds of
one issuer. Without --issue the first issuer in the file is used.

Examples:
  jsdabond curve --date 2026-10-16 --issue トヨタ自動車
  jsdabond curve --issue トヨタ --prefix --out toyota.svg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd, false)
		if err != nil {
			return fail(err)
		}
		f := filterFlags(cmd)
		if f.Issue == "" {
			issues := curve.Issues(ds.Quotes)
			if len(issues) == 0 {
				return fail(curve.ErrNoIssues)
			}
			f.Issue = issues[0]
		}
		c, err := curve.Build(ds.Quotes, ds.Date, f)
		if err != nil {
			return fail(err)
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			svg := report.YieldCurveChart(c, report.Sized(cfg.Chart.Width, cfg.Chart.Height))
			if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
				return fmt.Errorf("writing chart: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "chart written to %s\n", out)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), c)
		}
		return report.WriteCurveText(cmd.OutOrStdout(), c)
	},
}

func init() {
	addDateFlag(curveCmd)
	addFilterFlags(curveCmd)
	curveCmd.Flags().StringP("out", "o", "", "also write the chart as SVG")
	curveCmd.Flags().Bool("json", false, "print JSON")
}

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Track one issuer's yields over a range of trade dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := filterFlags(cmd)
		if f.Issue == "" {
			return fmt.Errorf("--issue is required")
		}
		to := svc.Today()
		if s, _ := cmd.Flags().GetString("to"); s != "" {
			d, err := utils.ParseDateJST(s)
			if err != nil {
				return fmt.Errorf("invalid --to %q: expected YYYY-MM-DD", s)
			}
			to = d
		}
		from := to.AddDate(0, -1, 0)
		if s, _ := cmd.Flags().GetString("from"); s != "" {
			d, err := utils.ParseDateJST(s)
			if err != nil {
				return fmt.Errorf("invalid --from %q: expected YYYY-MM-DD", s)
			}
			from = d
		}

		res, err := svc.History(cmd.Context(), from, to, f)
		if err != nil {
			return fail(err)
		}
		if len(res.Skipped) > 0 {
			days := make([]string, len(res.Skipped))
			for i, d := range res.Skipped {
				days[i] = utils.FormatDateJST(d)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "no file published for: %s\n", strings.Join(days, ", "))
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			svg := report.HistoryChart(res.Points, f.Issue, report.Sized(cfg.Chart.Width, cfg.Chart.Height))
			if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
				return fmt.Errorf("writing chart: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "chart written to %s\n", out)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Date\tIssue Code\tIssue Name\tYears\tYield (%)")
		for _, p := range res.Points {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n",
				utils.FormatDateJST(p.Date), p.IssueCode, p.IssueName, p.YearsToMaturity, p.Yield.String())
		}
		return tw.Flush()
	},
}

func init() {
	addFilterFlags(historyCmd)
	historyCmd.Flags().String("from", "", "first date, YYYY-MM-DD (default: one month before --to)")
	historyCmd.Flags().String("to", "", "last date, YYYY-MM-DD (default: today)")
	historyCmd.Flags().StringP("out", "o", "", "also write the chart as SVG")
	historyCmd.Flags().Bool("json", false, "print JSON")
}

// --- Holidays Command ---

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "List days without a publication",
	RunE: func(cmd *cobra.Command, args []string) error {
		if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
			added, err := svc.RefreshHolidays(cmd.Context(), true)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "merged %d new holidays\n", added)
		}
		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			year = svc.Today().Year()
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Date\tWeekday\tName\tSource")
		for _, h := range svc.Holidays(year) {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", utils.FormatDateJST(h.Date), h.Date.Weekday(), h.Name, h.Source)
		}
		return tw.Flush()
	},
}

func init() {
	holidaysCmd.Flags().Int("year", 0, "calendar year (default: this year)")
	holidaysCmd.Flags().Bool("refresh", false, "download the Cabinet Office holiday list first")
}

// --- Notices Command ---

var noticesCmd = &cobra.Command{
	Use:   "notices",
	Short: "Show the latest announcements from the configured feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit == 0 {
			limit = cfg.Notices.Limit
		}
		notices, err := svc.Notices(cmd.Context(), limit)
		if err != nil {
			return fail(err)
		}
		if notices == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No notices feed configured (notices.feed_url).")
			return nil
		}
		for _, n := range notices {
			published := strings.Repeat(" ", 10)
			if !n.Published.IsZero() {
				published = utils.FormatDateJST(n.Published)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n            %s\n", published, n.Title, n.Link)
		}
		return nil
	},
}

func init() {
	noticesCmd.Flags().Int("limit", 0, "number of notices (default: notices.limit)")
}

// --- Helpers ---

func addDateFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("date", "d", "", "trade date, YYYY-MM-DD (default: latest published)")
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("issue", "i", "", "issuer name as printed in the file")
	cmd.Flags().Bool("prefix", false, "match every issue name starting with --issue")
}

func filterFlags(cmd *cobra.Command) curve.Filter {
	issue, _ := cmd.Flags().GetString("issue")
	prefix, _ := cmd.Flags().GetBool("prefix")
	return curve.Filter{Issue: issue, Prefix: prefix}
}

// loadDataset loads --date, or the newest published file when it is unset.
func loadDataset(cmd *cobra.Command, refresh bool) (*pipeline.Dataset, error) {
	s, _ := cmd.Flags().GetString("date")
	if s == "" {
		return svc.Latest(cmd.Context(), svc.Today())
	}
	d, err := utils.ParseDateJST(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", s)
	}
	start := time.Now()
	ds, err := svc.Load(cmd.Context(), d, refresh)
	if err == nil {
		log.WithField("elapsed", time.Since(start)).Debug("loaded")
	}
	return ds, err
}

// output returns stdout or the --out file.
func output(cmd *cobra.Command) (io.Writer, func(), error) {
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func limitOrAll(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}

func nullString(valid bool, s string) string {
	if !valid {
		return "-"
	}
	return s
}
