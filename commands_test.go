package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func run(args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := GetRootCommand()
	cmd.SetOut(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	Convey("Solve prints the grid, values and policy", t, func() {
		out, err := run("solve", "--layout", "book")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "value-iteration on book")
		So(out, ShouldContainSubstring, "converged true")
		So(out, ShouldContainSubstring, "Values:")
		So(out, ShouldContainSubstring, "Total:")
		So(out, ShouldContainSubstring, "^ # ^ x")
	})

	Convey("Solve runs policy iteration from a config file and plots convergence", t, func() {
		dir := t.TempDir()
		plot := filepath.Join(dir, "convergence.png")
		out, err := run("solve", "--config", "config.yaml", "--algorithm", "policy-iteration", "--plot", plot)
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "policy-iteration on discount")
		_, err = os.Stat(plot)
		So(err, ShouldBeNil)
	})

	Convey("Invalid overrides are rejected", t, func() {
		_, err := run("solve", "--discount", "2")
		So(err, ShouldNotBeNil)

		_, err = run("solve", "--layout", "nowhere")
		So(err, ShouldNotBeNil)

		_, err = run("solve", "--algorithm", "policy-iteration", "--discount", "1")
		So(err, ShouldNotBeNil)
	})

	Convey("Questions reports every behavior", t, func() {
		out, err := run("questions")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "bridge-crossing")
		So(out, ShouldContainSubstring, "exits for 10")
		So(out, ShouldContainSubstring, "avoid-exits-and-cliff")
		So(out, ShouldContainSubstring, "never exits")
	})
}
