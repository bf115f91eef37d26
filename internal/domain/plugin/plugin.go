// Package plugin turns plugin-hub manifest entries into display-ready cards.
package plugin

import (
	"regexp"
	"strings"

	"github.com/okian/xptrack/internal/domain/format"
)

// MissingIcon is served when a plugin ships no icon.
const MissingIcon = "/img/plugin-hub/missingicon.png"

// AuthorPathPrefix prefixes author listing links.
const AuthorPathPrefix = "/plugin-hub/"

// Plugin is one manifest entry.
type Plugin struct {
	InternalName string `koanf:"internal_name" json:"internal_name"`
	DisplayName  string `koanf:"display_name"  json:"display_name"`
	Author       string `koanf:"author"        json:"author"`
	Description  string `koanf:"description"   json:"description"`
	Support      string `koanf:"support"       json:"support,omitempty"`
	ImageURL     string `koanf:"image_url"     json:"image_url,omitempty"`
	Installs     int64  `koanf:"installs"      json:"installs"`
}

// Link is an anchor target and text.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Card is the view model for a single plugin tile.
type Card struct {
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	Title        string `json:"title"`
	SupportLink  *Link  `json:"support_link,omitempty"`
	AuthorLink   Link   `json:"author_link"`
	InstallBadge string `json:"install_badge,omitempty"`
	Installed    bool   `json:"installed"`
	Description  string `json:"description"`
}

var (
	lineBreak = regexp.MustCompile(`<br/?>`)
	anyTag    = regexp.MustCompile(`<[^>]+>`)
)

// CleanDescription converts <br> and <br/> to newlines and drops all other
// markup.
func CleanDescription(s string) string {
	return anyTag.ReplaceAllString(lineBreak.ReplaceAllString(s, "\n"), "")
}

// NewCard builds the card for p. The installed badge only shows alongside a
// positive install count.
func NewCard(f *format.Formatter, p Plugin, installed bool) Card {
	c := Card{
		Name:        p.InternalName,
		Icon:        p.ImageURL,
		Title:       p.DisplayName,
		AuthorLink:  Link{Href: AuthorPathPrefix + p.Author, Text: p.Author},
		Description: CleanDescription(p.Description),
	}
	if strings.TrimSpace(c.Icon) == "" {
		c.Icon = MissingIcon
	}
	if p.Support != "" {
		c.SupportLink = &Link{Href: p.Support, Text: p.DisplayName}
	}
	if p.Installs > 0 {
		c.InstallBadge = f.Installs(p.Installs)
		c.Installed = installed
	}
	return c
}
