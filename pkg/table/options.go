package table

import (
	"github.com/projmd/projmd/pkg/httputil"
	"github.com/projmd/projmd/pkg/integrations"
	"github.com/projmd/projmd/pkg/project"
)

// Default icons for markdown rendering.
const (
	IconOSS        = "🔓"
	IconPrivate    = "🔐"
	IconStar       = "⭐"
	IconVersion    = "📦"
	IconComingSoon = "🔜"
)

// DefaultStatusIcons maps project statuses to their default badge icons.
var DefaultStatusIcons = map[project.Status]string{
	project.StatusActive:      "🟢",
	project.StatusPlanning:    "🟣",
	project.StatusMaintenance: "🟠",
	project.StatusDeprecated:  "⚫",
}

// Options controls table generation. Construct via [DefaultOptions] and
// override fields as needed; the zero value disables version display and
// the UNGH aggregator, which is rarely what you want.
type Options struct {
	// AutoVersion fetches the latest release tag and uses it when a project
	// has no manual version.
	AutoVersion bool

	// Stars shows star-count badges for open-source projects.
	Stars bool

	// ShowStatus shows a status badge per project.
	ShowStatus bool

	// StatusIcons overrides the default status badge icons.
	StatusIcons map[project.Status]string

	// SortBy orders projects within each category; empty keeps input order.
	SortBy project.SortKey

	// SortDirection applies to SortBy.
	SortDirection project.SortDirection

	// OSSIcon and PrivateIcon override the open/closed-source cell icons.
	OSSIcon     string
	PrivateIcon string

	// Versions enables version display entirely (manual and auto).
	Versions bool

	// UseUNGH selects the aggregator strategy for GitHub repos.
	UseUNGH bool

	// Request overrides the fetch defaults (timeout, retries, cache).
	Request httputil.RequestConfig
}

// DefaultOptions returns the baseline options: versions shown, aggregator
// enabled, caching on with package-default timeout and retries.
func DefaultOptions() Options {
	return Options{
		Versions: true,
		UseUNGH:  true,
		Request: httputil.RequestConfig{
			Retries:     httputil.DefaultRetries,
			EnableCache: true,
		},
	}
}

// Params bundles the categories to render with generation options.
type Params struct {
	Categories []project.Category
	Options
}

// statusIcon resolves the badge icon for a status, falling back to the
// default map for statuses missing from an override.
func (o Options) statusIcon(status project.Status) string {
	if o.StatusIcons != nil {
		if icon, ok := o.StatusIcons[status]; ok {
			return icon
		}
	}
	return DefaultStatusIcons[status]
}

func (o Options) ossIcon() string {
	if o.OSSIcon != "" {
		return o.OSSIcon
	}
	return IconOSS
}

func (o Options) privateIcon() string {
	if o.PrivateIcon != "" {
		return o.PrivateIcon
	}
	return IconPrivate
}

// needsRepoData reports whether any requested output requires fetching
// repository metadata.
func (o Options) needsRepoData() bool {
	return o.Stars || o.AutoVersion ||
		o.SortBy == project.SortByStars || o.SortBy == project.SortByUpdated
}

// fetchOptions translates table options into integration fetch options.
func (o Options) fetchOptions() integrations.Options {
	return integrations.Options{
		Stars:       o.Stars,
		Versions:    o.Versions,
		AutoVersion: o.AutoVersion,
		SortBy:      o.SortBy,
		UseUNGH:     o.UseUNGH,
		Request:     o.Request,
	}
}
