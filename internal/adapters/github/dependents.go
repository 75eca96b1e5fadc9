package github

import (
	"cmp"
	"context"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	perr "ghrepostats/internal/platform/errors"
)

// DependentKind selects the dependents tab of the network page
type DependentKind string

// Dependents page tabs
const (
	DependentRepositories DependentKind = "REPOSITORY"
	DependentPackages     DependentKind = "PACKAGE"
)

// ParseDependentKind accepts repository or package in any case
func ParseDependentKind(s string) (DependentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "repository", "repositories":
		return DependentRepositories, nil
	case "package", "packages":
		return DependentPackages, nil
	}
	return "", perr.InvalidArgf("unknown dependents kind %q (want repository or package)", s)
}

// Dependent is one row of the dependents listing
type Dependent struct {
	Repo  string
	Stars int
	Forks int
}

// DependentsOptions bounds a scrape
type DependentsOptions struct {
	Kind     DependentKind
	MinStars int
	// MaxPages stops after this many pages; zero or less means follow Next to the end
	MaxPages int
}

// Dependents is the scrape result; Items are sorted by stars descending
type Dependents struct {
	Repositories int
	Packages     int
	Items        []Dependent
	Pages        int
	Truncated    bool
}

// Dependents scrapes the network/dependents HTML pages of a repository
func (c *Client) Dependents(ctx context.Context, full string, opt DependentsOptions) (Dependents, error) {
	if opt.Kind == "" {
		opt.Kind = DependentRepositories
	}
	q := url.Values{}
	q.Set("dependent_type", string(opt.Kind))
	next := c.opts.WebURL + "/" + full + "/network/dependents?" + q.Encode()

	var out Dependents
	for next != "" {
		if opt.MaxPages > 0 && out.Pages >= opt.MaxPages {
			out.Truncated = true
			break
		}
		page, err := c.dependentsPage(ctx, next)
		if err != nil {
			if perr.IsCode(err, perr.ErrorCodeNotFound) {
				return Dependents{}, perr.NotFoundf("unknown repository %s", full)
			}
			return Dependents{}, err
		}
		if out.Pages == 0 {
			out.Repositories, out.Packages = page.repositories, page.packages
		}
		out.Pages++
		for _, d := range page.rows {
			if d.Stars >= opt.MinStars {
				out.Items = append(out.Items, d)
			}
		}
		c.log.Debug().Int("page", out.Pages).Int("rows", len(page.rows)).Msg("dependents page scraped")
		next = page.next
	}

	slices.SortStableFunc(out.Items, func(a, b Dependent) int {
		if d := cmp.Compare(b.Stars, a.Stars); d != 0 {
			return d
		}
		return strings.Compare(a.Repo, b.Repo)
	})
	return out, nil
}

func (c *Client) dependentsPage(ctx context.Context, target string) (dependentsPage, error) {
	resp, err := c.Do(ctx, http.MethodGet, target, acceptHTML)
	if err != nil {
		return dependentsPage{}, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("url", target).Msg("dependents close body failed")
		}
	}()
	page, err := parseDependentsPage(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return dependentsPage{}, err
	}
	if page.next != "" {
		page.next = absolute(resp.Request.URL, page.next)
	}
	return page, nil
}

type dependentsPage struct {
	repositories int
	packages     int
	rows         []Dependent
	next         string
}

// parseDependentsPage extracts totals, rows and the Next link from one dependents page
func parseDependentsPage(r io.Reader) (dependentsPage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return dependentsPage{}, perr.Wrap(err, perr.ErrorCodeUnknown, "parse dependents page")
	}
	var p dependentsPage
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode {
			continue
		}
		switch {
		case n.Data == "a" && hasClass(n, "btn-link"):
			fields := strings.Fields(text(n))
			if len(fields) < 2 {
				continue
			}
			count := number(fields[0])
			switch strings.ToLower(fields[len(fields)-1]) {
			case "repository", "repositories":
				p.repositories = count
			case "package", "packages":
				p.packages = count
			}
		case n.Data == "div" && attr(n, "data-test-id") == "dg-repo-pkg-dependent":
			if d, ok := parseDependentRow(n); ok {
				p.rows = append(p.rows, d)
			}
		case n.Data == "a" && strings.TrimSpace(text(n)) == "Next":
			if href := attr(n, "href"); href != "" {
				p.next = href
			}
		}
	}
	return p, nil
}

func parseDependentRow(row *html.Node) (Dependent, bool) {
	var d Dependent
	for n := range row.Descendants() {
		if n.Type != html.ElementNode {
			continue
		}
		switch {
		case n.Data == "a" && attr(n, "data-hovercard-type") == "repository":
			d.Repo = strings.Trim(attr(n, "href"), "/")
		case n.Data == "span" && containsIcon(n, "octicon-star"):
			d.Stars = number(text(n))
		case n.Data == "span" && containsIcon(n, "octicon-repo-forked"):
			d.Forks = number(text(n))
		}
	}
	return d, d.Repo != ""
}

func containsIcon(n *html.Node, icon string) bool {
	for c := range n.Descendants() {
		if c.Type == html.ElementNode && c.Data == "svg" && hasClass(c, icon) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func text(n *html.Node) string {
	var b strings.Builder
	for c := range n.Descendants() {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// number parses "1,234" style counts; anything else is 0
func number(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func absolute(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
