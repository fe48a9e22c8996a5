// Package project defines the project domain model and the pure query layer
// over it: validation, repository identity derivation, filtering, flexible
// date parsing, date-range queries, sorting, and related-project resolution.
//
// Everything in this package is side-effect free. Repository metadata is
// consumed as a plain map keyed by apiPath; fetching that map is the
// integrations package's job.
package project

import "strings"

// Category is a project category key.
type Category string

// Known project categories.
const (
	CategoryTemplate   Category = "template"
	CategoryCollection Category = "collection"
	CategoryLibrary    Category = "library"
	CategoryCLI        Category = "cli"
	CategorySaaS       Category = "saas"
)

// CategoryTitles maps category keys to display titles used as table headers.
var CategoryTitles = map[Category]string{
	CategoryTemplate:   "Templates",
	CategoryCollection: "Collections",
	CategoryLibrary:    "Libraries",
	CategoryCLI:        "CLI Tools",
	CategorySaaS:       "SaaS",
}

// Categories lists the known category keys in display order.
var Categories = []Category{
	CategoryTemplate,
	CategoryCollection,
	CategoryLibrary,
	CategoryCLI,
	CategorySaaS,
}

// Known reports whether c is a recognized category.
func (c Category) Known() bool {
	_, ok := CategoryTitles[c]
	return ok
}

// Status is a project lifecycle status.
type Status string

// Known project statuses.
const (
	StatusActive      Status = "active"
	StatusPlanning    Status = "planning"
	StatusMaintenance Status = "maintenance"
	StatusDeprecated  Status = "deprecated"
)

// Project is a single curated project descriptor. Instances are supplied by
// the caller (typically loaded from a collection file) and treated as
// read-only input everywhere in this module.
type Project struct {
	ID              string    `yaml:"id" json:"id"`
	Title           string    `yaml:"title" json:"title"`
	Description     string    `yaml:"description" json:"description"`
	LongDescription string    `yaml:"longDescription" json:"longDescription"`
	Icon            string    `yaml:"icon" json:"icon"`
	Link            string    `yaml:"link" json:"link"`
	Docs            string    `yaml:"docs" json:"docs"`
	Category        Category  `yaml:"category" json:"category"`
	Tags            []string  `yaml:"tags" json:"tags"`
	Technologies    []string  `yaml:"technologies" json:"technologies"`
	Features        []string  `yaml:"features" json:"features"`
	Status          Status    `yaml:"status" json:"status"`
	OSS             bool      `yaml:"oss" json:"oss"`
	Soon            bool      `yaml:"soon" json:"soon"`
	Ver             string    `yaml:"ver,omitempty" json:"ver,omitempty"`
	Screenshots     []string  `yaml:"screenshots" json:"screenshots"`
	RelatedProjects []string  `yaml:"relatedProjects" json:"relatedProjects"`
	WhoUses         []UserRef `yaml:"whoUses" json:"whoUses"`
}

// UserRef is a tagged reference to a project adopter: either a known user
// name resolved through [UserLinks], or an explicit name/link pair.
type UserRef struct {
	// Name is the user name. For a known reference it must appear in
	// UserLinks; for an explicit reference any name is valid.
	Name string `yaml:"name" json:"name"`

	// Link is the user's URL. Empty marks the reference as "known":
	// the link comes from the registry during normalization.
	Link string `yaml:"link,omitempty" json:"link,omitempty"`
}

// Known reports whether the reference relies on the user registry.
func (u UserRef) Known() bool { return u.Link == "" }

// FeaturedUser is a fully resolved adopter reference.
type FeaturedUser struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// UserLinks is the fixed registry of known user names. Known [UserRef]
// entries must resolve through this map; validation rejects unknown names.
var UserLinks = map[string]string{
	"cli": "https://github.com/reliverse/cli",
	"gem": "https://github.com/blefnk/gem",
}

// NormalizeWhoUses resolves a project's adopter references into full
// [FeaturedUser] values. Known names resolve through [UserLinks]; names
// missing from the registry fall back to a GitHub profile link, which
// validation prevents for collections that went through [ValidateAll].
func NormalizeWhoUses(refs []UserRef) []FeaturedUser {
	users := make([]FeaturedUser, 0, len(refs))
	for _, ref := range refs {
		switch {
		case !ref.Known():
			users = append(users, FeaturedUser{Name: ref.Name, Link: ref.Link})
		default:
			link, ok := UserLinks[ref.Name]
			if !ok {
				link = "https://github.com/" + ref.Name
			}
			users = append(users, FeaturedUser{Name: ref.Name, Link: link})
		}
	}
	return users
}

// ByID finds a project by id, ignoring case. Returns nil if not found.
func ByID(projects []Project, id string) *Project {
	for i := range projects {
		if strings.EqualFold(projects[i].ID, id) {
			return &projects[i]
		}
	}
	return nil
}
