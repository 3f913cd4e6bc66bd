package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/firefart/dmarcreport/internal/config"
	"github.com/firefart/dmarcreport/internal/dmarc"
	"github.com/firefart/dmarcreport/internal/dns"
	"github.com/firefart/dmarcreport/internal/render"
)

// set by build flags
var version = "dev"

var (
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "dmarcreport",
	})
)

type options struct {
	debug      bool
	configFile string
	format     string
	color      string
	resolve    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "dmarcreport <file>",
		Short: "Show a DMARC aggregate report as tables",
		Long: `dmarcreport parses a DMARC aggregate (RUA) report and prints the published
policy, the report metadata, summary statistics and every record.

Supported file types:
  .xml, .xml.gz, .zip`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.debug {
				logger.SetLevel(log.DebugLevel)
			}
			settings, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}

			// trap Ctrl+C and call cancel on the context
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			return run(ctx, cmd.OutOrStdout(), settings, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Print debug output")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Config File to use")
	cmd.Flags().StringVar(&opts.format, "format", config.FormatTable, "Output format: table, json or xml")
	cmd.Flags().StringVar(&opts.color, "color", config.ColorAuto, "Colorize output: auto, always or never")
	cmd.Flags().BoolVar(&opts.resolve, "resolve", false, "Show reverse DNS names of source IPs")
	return cmd
}

// loadSettings reads the optional config file. Flags given on the command
// line take precedence over the file.
func loadSettings(cmd *cobra.Command, opts options) (*config.Configuration, error) {
	settings := config.Defaults()
	if opts.configFile != "" {
		s, err := config.GetConfig(settings, opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", opts.configFile, err)
		}
		settings = *s
	}

	flags := cmd.Flags()
	if opts.configFile == "" || flags.Changed("format") {
		settings.Format = opts.format
	}
	if opts.configFile == "" || flags.Changed("color") {
		settings.Color = opts.color
	}
	if flags.Changed("resolve") {
		settings.ResolveDNS = opts.resolve
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func run(ctx context.Context, out io.Writer, settings *config.Configuration, filename string) error {
	logger.Debug("reading report", "file", filename)
	report, f, err := dmarc.ParseFile(filename)
	if err != nil {
		return err
	}
	logger.Debug("parsed report", "domain", report.Policy.Domain, "records", len(report.Records))

	// zip attachments often carry the RFC name only on the inner entry
	if rf := reportFilename(filename, f.Name); rf == nil {
		logger.Debug("filename does not follow the RFC naming scheme", "file", filename, "entry", f.Name)
	} else if rf.PolicyDomain != report.Policy.Domain {
		logger.Warn("policy domain in filename differs from report", "filename", rf.PolicyDomain, "report", report.Policy.Domain)
	}

	summary := dmarc.Summarize(report)

	var hostnames map[string][]string
	if settings.ResolveDNS {
		resolver := dns.NewResolver(ctx, dns.Options{
			Server:         settings.DnsServer,
			ConnectTimeout: settings.DnsConnectTimeout.Duration,
			Timeout:        settings.DnsTimeout.Duration,
			CacheTimeout:   settings.DnsCacheTimeout.Duration,
		}, logger)
		hostnames = resolver.LookupAll(sourceIPs(report))
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	switch settings.Format {
	case config.FormatJSON:
		b, err := dmarc.ConvertToJSON(report, summary, hostnames)
		if err != nil {
			return fmt.Errorf("could not convert JSON: %w", err)
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	case config.FormatXML:
		b, err := dmarc.ConvertToXML(report, summary, hostnames)
		if err != nil {
			return fmt.Errorf("could not convert XML: %w", err)
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	default:
		return render.New(out, settings.Color).Render(report, summary, hostnames)
	}
}

// reportFilename returns the parts of the first name following the RFC 7489
// naming scheme, or nil if none does.
func reportFilename(names ...string) *dmarc.ReportFilename {
	for _, name := range names {
		rf, err := dmarc.ParseReportFilename(name)
		if err == nil {
			return rf
		}
	}
	return nil
}

// sourceIPs returns the distinct source IPs of r in record order.
func sourceIPs(r *dmarc.Report) []string {
	seen := make(map[string]struct{}, len(r.Records))
	var ips []string
	for _, record := range r.Records {
		if _, ok := seen[record.SourceIP]; ok {
			continue
		}
		seen[record.SourceIP] = struct{}{}
		ips = append(ips, record.SourceIP)
	}
	return ips
}
