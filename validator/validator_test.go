package validator

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValidate(t *testing.T) {
	Convey("Given the default whitelist", t, func() {
		v := New(nil)

		Convey("Allowed hosts are valid", func() {
			for _, raw := range []string{
				"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
				"https://youtube.com/watch?v=dQw4w9WgXcQ",
				"https://youtu.be/dQw4w9WgXcQ",
				"http://YouTube.com/watch?v=dQw4w9WgXcQ",
				"https://youtube.com:443/watch?v=dQw4w9WgXcQ",
			} {
				u, ok := v.Validate(raw).Get()
				So(ok, ShouldBeTrue)
				So(u.Raw, ShouldEqual, raw)
				So(u.Parsed, ShouldNotBeNil)
			}
		})

		Convey("The host is normalized", func() {
			u := v.Validate("http://YouTube.com/watch?v=x").MustGet()
			So(u.Host, ShouldEqual, "youtube.com")
		})

		Convey("Unparsable strings and foreign hosts are invalid", func() {
			for _, raw := range []string{
				"",
				"   ",
				"not a url",
				"youtube.com/watch?v=x",
				"://youtube.com",
				"https://invalid-host.com",
				"https://invalid-url.com",
				"https://m.youtube.com/watch?v=x",
				"https://youtube.com.evil.org/watch?v=x",
				"https://evil.org/?u=https://youtube.com",
				"http://[::1",
				"%zz",
			} {
				So(v.Validate(raw).IsAbsent(), ShouldBeTrue)
				So(v.Valid(raw), ShouldBeFalse)
			}
		})
	})

	Convey("Given a custom whitelist", t, func() {
		v := New([]string{" M.YouTube.com ", "", "m.youtube.com"})

		Convey("Entries are normalized and deduplicated", func() {
			So(v.Hosts(), ShouldResemble, []string{"m.youtube.com"})
		})

		Convey("Only the configured hosts pass", func() {
			So(v.Valid("https://m.youtube.com/watch?v=x"), ShouldBeTrue)
			So(v.Valid("https://youtube.com/watch?v=x"), ShouldBeFalse)
		})
	})
}
