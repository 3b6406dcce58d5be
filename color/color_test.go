package color

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestToggle(t *testing.T) {
	Convey("Enabled settings are green and disabled ones red", t, func() {
		So(Toggle(true), ShouldEqual, Green)
		So(Toggle(false), ShouldEqual, Red)
	})
}
