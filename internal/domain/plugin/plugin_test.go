package plugin_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/xptrack/internal/domain/format"
	"github.com/okian/xptrack/internal/domain/plugin"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewCard(t *testing.T) {
	f := format.Default()

	Convey("Given a fully populated plugin", t, func() {
		p := plugin.Plugin{
			InternalName: "xp-drops-plus",
			DisplayName:  "XP Drops Plus",
			Author:       "skillerkid",
			Description:  "Line one<br>Line <i>two</i><br/>end",
			Support:      "https://example.com/support",
			ImageURL:     "/img/icon.png",
			Installs:     48213,
		}

		Convey("When it is installed", func() {
			c := plugin.NewCard(f, p, true)

			So(c.Icon, ShouldEqual, "/img/icon.png")
			So(c.SupportLink, ShouldResemble, &plugin.Link{Href: "https://example.com/support", Text: "XP Drops Plus"})
			So(c.AuthorLink, ShouldResemble, plugin.Link{Href: "/plugin-hub/skillerkid", Text: "skillerkid"})
			So(c.InstallBadge, ShouldEqual, "48,213 active installs")
			So(c.Installed, ShouldBeTrue)
			So(c.Description, ShouldEqual, "Line one\nLine two\nend")
		})
	})

	Convey("Given a sparse plugin", t, func() {
		p := plugin.Plugin{InternalName: "bare", DisplayName: "Bare", Author: "anon", Description: "plain"}

		Convey("Then defaults fill in and badges are hidden", func() {
			c := plugin.NewCard(f, p, true)

			So(c.Icon, ShouldEqual, plugin.MissingIcon)
			So(c.SupportLink, ShouldBeNil)
			So(c.InstallBadge, ShouldEqual, "")
			So(c.Installed, ShouldBeFalse)
		})

		Convey("Then a single install is singular", func() {
			p.Installs = 1
			So(plugin.NewCard(f, p, false).InstallBadge, ShouldEqual, "1 active install")
		})
	})
}

func TestCleanDescription(t *testing.T) {
	Convey("Given descriptions with markup", t, func() {
		So(plugin.CleanDescription("a<br>b"), ShouldEqual, "a\nb")
		So(plugin.CleanDescription("a<br/>b"), ShouldEqual, "a\nb")
		So(plugin.CleanDescription(`<a href="x">link</a>`), ShouldEqual, "link")
		So(plugin.CleanDescription("no tags"), ShouldEqual, "no tags")
	})
}

func TestHub(t *testing.T) {
	Convey("Given a manifest on disk", t, func() {
		path := filepath.Join("..", "..", "..", "configs", "plugins.yaml")
		hub, err := plugin.LoadFile(format.Default(), path)
		So(err, ShouldBeNil)
		So(hub.Len(), ShouldEqual, 3)

		Convey("When listing every card", func() {
			cards := hub.Cards("", plugin.ParseInstalled("goal-tracker, rank-watch"))

			So(len(cards), ShouldEqual, 3)
			So(cards[0].Name, ShouldEqual, "xp-drops-plus")
			So(cards[0].Installed, ShouldBeFalse)
			So(cards[1].Installed, ShouldBeTrue)
			So(cards[1].Description, ShouldEqual, "Track xp goals across sessions.\nReset weekly.")
			So(cards[2].Installed, ShouldBeFalse)
		})

		Convey("When filtering by author", func() {
			cards := hub.Cards("SkillerKid", nil)

			So(len(cards), ShouldEqual, 2)
			So(cards[0].Name, ShouldEqual, "xp-drops-plus")
			So(cards[1].Name, ShouldEqual, "rank-watch")
		})

		Convey("When the author is unknown", func() {
			So(hub.Cards("nobody", nil), ShouldBeEmpty)
		})
	})

	Convey("Given invalid manifests", t, func() {
		dir := t.TempDir()

		Convey("When an entry has no internal name", func() {
			path := filepath.Join(dir, "bad.yaml")
			So(os.WriteFile(path, []byte("plugins:\n  - display_name: X\n"), 0o600), ShouldBeNil)
			_, err := plugin.LoadFile(nil, path)
			So(errors.Is(err, plugin.ErrInvalidManifest), ShouldBeTrue)
		})

		Convey("When names repeat", func() {
			_, err := plugin.NewHub(nil, []plugin.Plugin{{InternalName: "a"}, {InternalName: "a"}})
			So(errors.Is(err, plugin.ErrInvalidManifest), ShouldBeTrue)
		})

		Convey("When the file is missing", func() {
			_, err := plugin.LoadFile(nil, filepath.Join(dir, "nope.yaml"))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given installed lists", t, func() {
		So(plugin.ParseInstalled(""), ShouldBeEmpty)
		So(plugin.ParseInstalled("a,,b "), ShouldResemble, map[string]bool{"a": true, "b": true})
	})
}
