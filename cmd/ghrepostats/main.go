// Command ghrepostats shows time series statistics of a GitHub repository
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"ghrepostats/internal/adapters/github"
	"ghrepostats/internal/adapters/output"
	"ghrepostats/internal/core/version"
	"ghrepostats/internal/platform/config"
	"ghrepostats/internal/platform/config/credentials"
	perr "ghrepostats/internal/platform/errors"
	"ghrepostats/internal/platform/logger"
	"ghrepostats/internal/services/stats/domain"
	statsmod "ghrepostats/internal/services/stats/module"
	"ghrepostats/internal/services/stats/service"
)

// seams swapped in tests
var (
	readCredentials = func() (credentials.Credentials, error) { return credentials.Default().Read() }

	newService = func(ctx context.Context, s config.Settings, c credentials.Credentials) (service.Service, func() error, error) {
		m, err := statsmod.New(ctx, statsmod.Options{Settings: s, Credentials: &c})
		if err != nil {
			return nil, nil, err
		}
		return m.Service(), m.Close, nil
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func kindNames() string {
	names := make([]string, len(domain.Kinds))
	for i, k := range domain.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// run executes one invocation and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ghrepostats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		fVerbose  = fs.Bool("v", false, "output diagnostic information")
		fVersion  = fs.Bool("version", false, "print build information and exit")
		fCSV      = fs.String("csv", "", "write the series to this CSV file (.csv is appended when there is no extension)")
		fPlot     = fs.String("plot", "", "render the series as a PNG chart to this file")
		fDepKind  = fs.String("dependents-kind", "repository", "dependents tab to scrape: repository | package")
		fMinStars = fs.Int("min-stars", 0, "only list dependents with at least this many stars")
		fMaxPages = fs.Int("max-pages", 10, "stop scraping dependents after this many pages (0 = all)")
	)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "usage: ghrepostats [flags] <kind> <owner/name>\n\nkinds: %s\n\nflags:\n", kindNames())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *fVersion {
		_, _ = fmt.Fprintln(stdout, version.Info("ghrepostats"))
		return 0
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 1
	}
	if *fVerbose {
		logger.Verbose(true)
	}
	log := logger.Get()

	kind, err := domain.ParseKind(fs.Arg(0))
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	repo := fs.Arg(1)

	settings, err := config.Load(config.New())
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	creds, err := readCredentials()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}

	svc, closeFn, err := newService(ctx, settings, creds)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			log.Error().Err(cerr).Msg("failed to close snapshot store")
		}
	}()

	res, err := svc.Run(ctx, domain.Request{
		Repo: repo,
		Kind: kind,
		Dependents: domain.DependentsRequest{
			Kind:     strings.ToLower(*fDepKind),
			MinStars: *fMinStars,
			MaxPages: *fMaxPages,
		},
	})
	if perr.IsNoData(err) {
		_, _ = fmt.Fprintln(stdout, err)
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		if h := hint(err); h != "" {
			_, _ = fmt.Fprintln(stderr, h)
		}
		return 1
	}

	if res.Dependents != nil {
		return printDependents(res, *fCSV, stdout, stderr)
	}

	title := output.Title(res.Repo, res.Title)
	_, _ = fmt.Fprintln(stdout, output.Summary(title, res.Points))
	if *fCSV == "" && *fPlot == "" {
		if err := output.EncodeCSV(stdout, res.Points); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}
	if *fCSV != "" {
		path, err := output.WriteCSV(*fCSV, res.Points)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	if *fPlot != "" {
		if err := output.WritePlot(*fPlot, title, res.Points); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "wrote %s\n", *fPlot)
	}
	return 0
}

// hint suggests a next step for GitHub failures that are not the user's input
func hint(err error) string {
	switch {
	case github.IsRateLimited(err):
		return "hint: the GitHub rate limit is exhausted; set GHSTATS_GITHUB_TOKEN (or the token in ghrepo-stats.ini) for a higher quota, or retry after the reset"
	case github.IsTransient(err):
		return "hint: GitHub is failing temporarily; retry in a few minutes"
	}
	return ""
}

func printDependents(res domain.Result, csvPath string, stdout, stderr io.Writer) int {
	d := res.Dependents
	_, _ = fmt.Fprintf(stdout, "%s: %s repositories, %s packages\n",
		res.Repo, output.Count(d.Repositories), output.Count(d.Packages))
	rows := make([][]string, len(d.Items))
	for i, it := range d.Items {
		rows[i] = []string{it.Repo, strconv.Itoa(it.Stars), strconv.Itoa(it.Forks)}
		if csvPath == "" {
			_, _ = fmt.Fprintf(stdout, "%s\t%s stars\t%s forks\n", it.Repo, output.Count(it.Stars), output.Count(it.Forks))
		}
	}
	if d.Truncated {
		_, _ = fmt.Fprintf(stdout, "stopped after %d pages\n", d.Pages)
	}
	if csvPath != "" {
		path, err := output.WriteRowsCSV(csvPath, rows)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	return 0
}
