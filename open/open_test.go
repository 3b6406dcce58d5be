package open

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCommand(t *testing.T) {
	Convey("The launcher depends on the platform", t, func() {
		cmd, err := command("linux", "/videos/clip.mp4")
		So(err, ShouldBeNil)
		So(cmd.Args, ShouldResemble, []string{"xdg-open", "/videos/clip.mp4"})

		cmd, err = command("darwin", "/videos/clip.mp4")
		So(err, ShouldBeNil)
		So(cmd.Args[0], ShouldEqual, "open")

		cmd, err = command("windows", `C:\clip.mp4`)
		So(err, ShouldBeNil)
		So(cmd.Args[1], ShouldEqual, "url.dll,FileProtocolHandler")

		_, err = command("plan9", "/clip.mp4")
		So(err, ShouldNotBeNil)
	})
}
