package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/xiaoshicae/xdocscan"
	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xgorm"
	"github.com/xiaoshicae/xdocscan/xreplay"
	"github.com/xiaoshicae/xdocscan/xscan"

	. "github.com/bytedance/mockey"
	. "github.com/smartystreets/goconvey/convey"
)

func writeSession(t *testing.T, m *xreplay.Manifest) string {
	dir := t.TempDir()
	for i := range m.Frames {
		m.Frames[i].File = fmt.Sprintf("%04d.png", i)
		f, err := os.Create(filepath.Join(dir, m.Frames[i].File))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 32, 24))); err != nil {
			t.Fatal(err)
		}
		_ = f.Close()
	}
	raw, _ := json.Marshal(m)
	if err := os.WriteFile(filepath.Join(dir, xreplay.ManifestFile), raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func execute(args ...string) (string, error) {
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReplayCmd(t *testing.T) {
	PatchConvey("TestReplayCmd", t, func() {
		Mock(xdocscan.R).Return(nil).Build()
		shutdown := Mock(xdocscan.Shutdown).Return(nil).Build()
		Mock(xscan.LoadConfig).Return(&xscan.Config{}, nil).Build()

		card := []xscan.Prediction{{
			Classification: xscan.ClassificationIDCardFront,
			Bounds:         xscan.Bounds{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5},
			Confidence:     0.8,
		}}
		dir := writeSession(t, &xreplay.Manifest{
			SessionID: "cli-session",
			Frames: []xreplay.FrameFixture{
				{ID: "a", Predictions: card},
				{ID: "b", Predictions: card},
				{ID: "c"},
			},
		})

		PatchConvey("InputRequired", func() {
			_, err := execute("replay")
			So(err, ShouldNotBeNil)
		})

		PatchConvey("Summary", func() {
			out, err := execute("replay", "-i", dir, "--warmup", "100ms", "-v")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "session:    cli-session")
			So(out, ShouldContainSubstring, "frames:     3")
			So(out, ShouldContainSubstring, "legacy:     1")
			So(out, ShouldContainSubstring, "none   warming_up")
			So(out, ShouldContainSubstring, "none   no_document")
			So(out, ShouldContainSubstring, "metrics classifier")
			So(shutdown.Times(), ShouldEqual, 1)
		})

		PatchConvey("JSON", func() {
			out, err := execute("replay", "-i", dir, "--warmup", "100ms", "--json")
			So(err, ShouldBeNil)
			report := map[string]any{}
			So(json.Unmarshal([]byte(out), &report), ShouldBeNil)
			So(report["sessionId"], ShouldEqual, "cli-session")
			So(report["results"], ShouldHaveLength, 3)
		})

		PatchConvey("StoreWithoutConfig", func() {
			Mock(xconfig.ContainKey).Return(false).Build()
			_, err := execute("replay", "-i", dir, "--store")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "--store requires XGorm")
		})

		PatchConvey("DSNConnectFailed", func() {
			Mock(xgorm.NewClient).Return(nil, fmt.Errorf("dial failed")).Build()
			_, err := execute("replay", "-i", dir, "--dsn", "host=127.0.0.1")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "dial failed")
		})

		PatchConvey("MissingSession", func() {
			_, err := execute("replay", "-i", filepath.Join(dir, "nope"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCollectServer(t *testing.T) {
	PatchConvey("TestCollectServer", t, func() {
		Mock(xconfig.UnmarshalConfig).Return(nil).Build()
		s := newCollectServer(&collectOptions{Path: "/events", Keep: 10, Port: 18999})
		routes := s.Engine().Routes()
		paths := make([]string, 0, len(routes))
		for _, r := range routes {
			paths = append(paths, r.Method+" "+r.Path)
		}
		So(paths, ShouldContain, "POST /events")
		So(paths, ShouldContain, "GET /events/stats")
		So(paths, ShouldContain, "GET /healthz")
	})
}

func TestRootCmd(t *testing.T) {
	PatchConvey("TestRootCmd", t, func() {
		out, err := execute("--version")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, Version)

		t.Setenv(configLocationEnvKey, "")
		Mock(runReplay).Return(nil).Build()
		Mock(xdocscan.R).Return(nil).Build()
		Mock(xdocscan.Shutdown).Return(nil).Build()
		_, err = execute("replay", "-i", "x", "--app.config.location", "/tmp/app.yml")
		So(err, ShouldBeNil)
		So(os.Getenv(configLocationEnvKey), ShouldEqual, "/tmp/app.yml")
	})
}
