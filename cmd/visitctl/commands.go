package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sifan077/VisitAudit/internal/app/service"
	"github.com/sifan077/VisitAudit/internal/collector"
	"github.com/sifan077/VisitAudit/internal/dashboard"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var errNotLoggedIn = errors.New("not logged in; run `visitctl login` first")

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the admin token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				line, err := prompt(cmd, "Email: ")
				if err != nil {
					return err
				}
				email = line
			}
			password, err := readSecret(cmd, "Password: ")
			if err != nil {
				return err
			}

			s, err := opts.session()
			if err != nil {
				return err
			}
			if err := s.Login(cmd.Context(), email, password); err != nil {
				if errors.Is(err, dashboard.ErrInvalidCredentials) {
					return errors.New("invalid email or password")
				}
				return err
			}
			id := s.Identity()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (expires %s)\n", id.Email, expiry(id))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	return cmd
}

func newLogoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored admin token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			if err := s.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the stored token is still accepted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			if err := s.Resume(cmd.Context()); err != nil {
				if errors.Is(err, dashboard.ErrUnauthenticated) {
					fmt.Fprintln(cmd.OutOrStdout(), dashboard.Unauthenticated)
					return nil
				}
				return err
			}
			id := s.Identity()
			fmt.Fprintf(cmd.OutOrStdout(), "%s as %s (expires %s)\n", s.State(), id.Email, expiry(id))
			return nil
		},
	}
}

func newLogsCmd(opts *globalOptions) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List unsubscribe visits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := loadRecords(cmd, opts)
			if err != nil {
				return err
			}
			shown := dashboard.Filter(records, filter)
			if len(shown) == 0 {
				if filter != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No logs match your filter")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "No unsubscribe visits logged yet")
				}
				return nil
			}
			return printRecords(cmd.OutOrStdout(), shown)
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "case-insensitive match on email, IP, country, city or source")
	return cmd
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show headline counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := loadRecords(cmd, opts)
			if err != nil {
				return err
			}
			stats := dashboard.ComputeStats(records, time.Now())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Total visits\t%d\n", stats.Total)
			fmt.Fprintf(w, "With email\t%d\n", stats.WithEmail)
			fmt.Fprintf(w, "Countries\t%d\n", stats.Countries)
			fmt.Fprintf(w, "Today\t%d\n", stats.Today)
			return w.Flush()
		},
	}
}

func newAnalyticsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show the server-side analytics summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.session()
			if err != nil {
				return err
			}
			if err := s.Resume(cmd.Context()); err != nil {
				return authError(err)
			}
			summary, err := opts.client().Analytics(cmd.Context(), s.Token())
			if err != nil {
				return authError(err)
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Total visits\t%d\n", summary.TotalVisits)
			fmt.Fprintf(w, "Unique emails\t%d\n", summary.UniqueEmails)
			fmt.Fprintf(w, "Unique visitors (est.)\t%d\n", summary.UniqueVisitors)
			printCounts(w, "Top sources", summary.TopSources)
			printCounts(w, "Top countries", summary.TopCountries)
			printCounts(w, "Top devices", summary.TopDevices)
			return w.Flush()
		},
	}
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var format, dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all loaded visits to a JSON or CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(format)
			if format != dashboard.FormatJSON && format != dashboard.FormatCSV {
				return fmt.Errorf("unsupported format %q (want json or csv)", format)
			}
			records, err := loadRecords(cmd, opts)
			if err != nil {
				return err
			}

			path := filepath.Join(dir, dashboard.ExportFileName(format, time.Now()))
			err = writeExportFile(path, func(w io.Writer) error {
				if format == dashboard.FormatCSV {
					return dashboard.ExportCSV(w, records)
				}
				return dashboard.ExportJSON(w, records)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(records), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", dashboard.FormatJSON, "json or csv")
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")
	return cmd
}

// writeExportFile creates path and fills it with write. On any failure, close included,
// the partial file is removed.
func writeExportFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close export: %w", err)
	}
	return nil
}

func newProbeCmd(opts *globalOptions) *cobra.Command {
	var email, source string
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Send one synthetic visit through the collector",
		RunE: func(cmd *cobra.Command, _ []string) error {
			endpoint := strings.TrimRight(opts.server, "/") + "/api/log-unsubscribe"
			ua := "visitctl-probe/1.0"

			query := url.Values{"source": {source}}
			if email != "" {
				query.Set("email", email)
			}
			page := strings.TrimRight(opts.server, "/") + "/unsubscribe?" + query.Encode()
			env := collector.Environment{
				PageURL:       page,
				UserAgent:     ua,
				Language:      "en",
				Languages:     []string{"en"},
				Platform:      "visitctl",
				CookieEnabled: false,
				OnLine:        true,
				Timezone:      time.Local.String(),
			}

			c := collector.New(
				collector.NewHTTPTransport(endpoint, nil).WithUserAgent(ua),
				collector.WithLogger(opts.logger()),
			)
			res := c.Collect(cmd.Context(), env)
			if res.SendError != nil {
				return fmt.Errorf("probe failed: %w", res.SendError)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Probe visit accepted by %s\n", endpoint)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email query parameter to attach")
	cmd.Flags().StringVar(&source, "source", "probe", "source query parameter to attach")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		RunE: func(cmd *cobra.Command, _ []string) error {
			first, err := readSecret(cmd, "Password: ")
			if err != nil {
				return err
			}
			second, err := readSecret(cmd, "Repeat: ")
			if err != nil {
				return err
			}
			if first != second {
				return errors.New("passwords do not match")
			}
			if first == "" {
				return errors.New("password must not be empty")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(first), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}

func loadRecords(cmd *cobra.Command, opts *globalOptions) ([]model.VisitRecord, error) {
	s, err := opts.session()
	if err != nil {
		return nil, err
	}
	if err := s.Resume(cmd.Context()); err != nil {
		return nil, authError(err)
	}
	records, err := s.Refresh(cmd.Context())
	if err != nil {
		return nil, authError(err)
	}
	return records, nil
}

func authError(err error) error {
	if errors.Is(err, dashboard.ErrUnauthenticated) {
		return errNotLoggedIn
	}
	return err
}

func printRecords(out io.Writer, records []model.VisitRecord) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEMAIL\tIP\tLOCATION\tSOURCE\tDEVICE")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.SeenAt().Local().Format("2006-01-02 15:04:05"),
			orDash(r.Email),
			orDash(r.IPAddress),
			orDash(location(r)),
			orDash(r.Source),
			service.ParseUserAgent(r.UserAgent).Label(),
		)
	}
	fmt.Fprintf(w, "\n%d records\n", len(records))
	return w.Flush()
}

func printCounts(w io.Writer, title string, entries []model.CountEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\t\n", title)
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\t%d\n", e.Key, e.Count)
	}
}

func location(r model.VisitRecord) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.City, r.Region, r.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func expiry(id *model.AdminIdentity) string {
	if id == nil || id.Exp == 0 {
		return "unknown"
	}
	return time.Unix(id.Exp, 0).Local().Format(time.RFC1123)
}

func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	return readLine(cmd.InOrStdin())
}

// readLine reads up to a newline one byte at a time so that successive prompts on a
// piped stdin do not swallow each other's input.
func readLine(r io.Reader) (string, error) {
	var b strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			b.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// readSecret reads without echo when stdin is a terminal and falls back to a plain line otherwise.
func readSecret(cmd *cobra.Command, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(fd) {
		return prompt(cmd, label)
	}
	fmt.Fprint(cmd.ErrOrStderr(), label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}
