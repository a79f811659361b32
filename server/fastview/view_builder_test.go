package fastview

import (
	"context"
	"html/template"
	"strconv"
	"testing"

	channerics "github.com/niceyeti/channerics/channels"

	. "github.com/smartystreets/goconvey/convey"
)

type testView struct {
	updates <-chan []EleUpdate
}

func newTestView(done <-chan struct{}, models <-chan string) ViewComponent {
	return &testView{
		updates: channerics.Convert(done, models, func(s string) []EleUpdate {
			return []EleUpdate{{EleId: s}}
		}),
	}
}

func (tv *testView) Updates() <-chan []EleUpdate {
	return tv.updates
}

func (tv *testView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "test" }}{{ . }}{{ end }}`)
	return "test", err
}

func TestViewBuilder(t *testing.T) {
	Convey("Given a view builder", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		input := make(chan int)

		Convey("Build fails without views", func() {
			_, err := NewViewBuilder[int, string]().
				WithModel(input, strconv.Itoa).
				Build()
			So(err, ShouldEqual, ErrNoViews)
		})

		Convey("Build fails without a model", func() {
			_, err := NewViewBuilder[int, string]().
				WithView(newTestView).
				Build()
			So(err, ShouldEqual, ErrNoModel)
		})

		Convey("Every view receives each converted model", func() {
			views, err := NewViewBuilder[int, string]().
				WithContext(ctx).
				WithModel(input, strconv.Itoa).
				WithView(newTestView).
				WithView(newTestView).
				Build()
			So(err, ShouldBeNil)
			So(len(views), ShouldEqual, 2)

			go func() {
				select {
				case input <- 7:
				case <-ctx.Done():
				}
			}()

			for _, view := range views {
				So(<-view.Updates(), ShouldResemble, []EleUpdate{{EleId: "7"}})
			}
		})
	})
}
