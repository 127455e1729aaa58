package icons_test

import (
	"errors"
	"testing"

	"github.com/okian/podium/internal/domain/icons"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	Convey("Given icon map documents", t, func() {
		Convey("When the document is a valid rule list", func() {
			m, err := icons.Decode([]byte(`[{"Trigger":"lauf","Emoji":"🏃"},{"Trigger":"quiz","Emoji":"❓"}]`))

			Convey("Then all rules are kept in order", func() {
				So(err, ShouldBeNil)
				So(m, ShouldHaveLength, 2)
				So(m[0], ShouldResemble, icons.Rule{Trigger: "lauf", Emoji: "🏃"})
			})
		})

		Convey("When a rule lacks its emoji", func() {
			_, err := icons.Decode([]byte(`[{"Trigger":"lauf","Emoji":""}]`))

			Convey("Then ErrInvalidMap is returned", func() {
				So(errors.Is(err, icons.ErrInvalidMap), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "rule 0")
			})
		})

		Convey("When the document is an object", func() {
			_, err := icons.Decode([]byte(`{"lauf":"🏃"}`))
			So(errors.Is(err, icons.ErrInvalidMap), ShouldBeTrue)
		})

		Convey("When the document is null", func() {
			_, err := icons.Decode([]byte(`null`))
			So(errors.Is(err, icons.ErrInvalidMap), ShouldBeTrue)
		})

		Convey("When a rule carries unknown keys", func() {
			_, err := icons.Decode([]byte(`[{"Trigger":"lauf","Emoji":"🏃","Color":"red"}]`))
			So(errors.Is(err, icons.ErrInvalidMap), ShouldBeTrue)
		})

		Convey("When the list is empty", func() {
			m, err := icons.Decode([]byte(`[]`))
			So(err, ShouldBeNil)
			So(m, ShouldBeEmpty)
		})
	})
}

func TestLookup(t *testing.T) {
	Convey("Given an icon map", t, func() {
		m := icons.Map{
			{Trigger: "Lauf", Emoji: "🏃"},
			{Trigger: "staffel", Emoji: "🎽"},
			{Trigger: "quiz", Emoji: "❓"},
		}

		Convey("Then triggers match as case-insensitive substrings", func() {
			So(m.Lookup("100m LAUF"), ShouldEqual, "🏃")
			So(m.Lookup("Mathe-Quiz"), ShouldEqual, "❓")
		})

		Convey("Then the first matching rule wins", func() {
			So(m.Lookup("Staffellauf"), ShouldEqual, "🏃")
		})

		Convey("Then unknown disciplines get the trophy", func() {
			So(m.Lookup("Tauziehen"), ShouldEqual, icons.Fallback)
			So(icons.Map(nil).Lookup("Lauf"), ShouldEqual, "🏆")
		})
	})
}
