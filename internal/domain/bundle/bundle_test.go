package bundle_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/examcast/internal/domain/bundle"
	"github.com/okian/examcast/internal/domain/bundle/bundletest"
	"github.com/okian/examcast/internal/domain/features"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given artifacts on disk", t, func() {
		dir := t.TempDir()

		Convey("When loading a JSON artifact", func() {
			path := bundletest.WriteJSON(t, dir, "bundle.json", bundletest.Artifact())
			fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			b, err := bundle.Load(ctx, path, bundle.WithClock(func() time.Time { return fixed }))

			Convey("Then the bundle should carry its parts and provenance", func() {
				So(err, ShouldBeNil)
				So(b.Kind, ShouldEqual, bundle.KindForest)
				So(b.SchemaVersion, ShouldEqual, "v1")
				So(b.Source, ShouldEqual, path)
				So(b.Checksum, ShouldHaveLength, 64)
				So(b.LoadedAt, ShouldEqual, fixed)
				So(b.Tools.Classes(), ShouldResemble, bundletest.Tools)
				So(b.Purposes.Classes(), ShouldResemble, bundletest.Purposes)
				So(b.Categories().Purposes, ShouldResemble, bundletest.Purposes)
			})

			Convey("And the model should evaluate the fixture forest", func() {
				asm, err := b.Assembler().Assemble(features.DefaultRequest())
				So(err, ShouldBeNil)
				y, err := b.Engine().Predict(ctx, asm.Vector)
				So(err, ShouldBeNil)
				So(y, ShouldEqual, 55)
			})
		})

		Convey("When loading the same artifact as YAML", func() {
			path := bundletest.WriteYAML(t, dir, "bundle.yaml", bundletest.Artifact())
			b, err := bundle.Load(ctx, path)

			Convey("Then it should produce the same predictions", func() {
				So(err, ShouldBeNil)
				req := features.DefaultRequest()
				req.LastExamScore = 90
				asm, err := b.Assembler().Assemble(req)
				So(err, ShouldBeNil)
				y, err := b.Engine().Predict(ctx, asm.Vector)
				So(err, ShouldBeNil)
				So(y, ShouldEqual, 67.5)
			})
		})

		Convey("When loading a linear artifact", func() {
			path := bundletest.WriteJSON(t, dir, "linear.json", bundletest.LinearArtifact())
			b, err := bundle.Load(ctx, path)
			So(err, ShouldBeNil)
			So(b.Kind, ShouldEqual, bundle.KindLinear)

			y, err := b.Model.Predict(features.Vector{0, 0, 0, 0, 50, 0, 0, 0}.Slice())
			So(err, ShouldBeNil)
			So(y, ShouldAlmostEqual, 50)
		})

		Convey("When the file does not exist", func() {
			_, err := bundle.Load(ctx, filepath.Join(dir, "absent.json"))
			So(errors.Is(err, bundle.ErrMissing), ShouldBeTrue)

			_, err = bundle.Load(ctx, "")
			So(errors.Is(err, bundle.ErrMissing), ShouldBeTrue)
		})

		Convey("When the artifact is broken", func() {
			cases := map[string]func(*bundle.Artifact){
				"format":       func(a *bundle.Artifact) { a.FormatVersion = 2 },
				"columns":      func(a *bundle.Artifact) { a.FeatureCols[0], a.FeatureCols[1] = a.FeatureCols[1], a.FeatureCols[0] },
				"schema":       func(a *bundle.Artifact) { a.SchemaVersion = "v9" },
				"tools":        func(a *bundle.Artifact) { a.ToolsClasses = nil },
				"purposes":     func(a *bundle.Artifact) { a.PurposeClasses = []string{"A", "A"} },
				"kind":         func(a *bundle.Artifact) { a.Model.Kind = "boosted" },
				"missing kind": func(a *bundle.Artifact) { a.Model.Kind = "" },
				"width":        func(a *bundle.Artifact) { a.Model.NFeatures = 7 },
				"trees":        func(a *bundle.Artifact) { a.Model.Trees = nil },
				"onnx":         func(a *bundle.Artifact) { a.Model = bundle.ModelSpec{Kind: bundle.KindONNX, Path: "nope.onnx", Input: "x", Output: "y"} },
			}
			for name, mutate := range cases {
				art := bundletest.Artifact()
				mutate(&art)
				path := bundletest.WriteJSON(t, dir, "broken.json", art)
				_, err := bundle.Load(ctx, path)
				So(errors.Is(err, bundle.ErrMalformed), ShouldBeTrue)
				if !errors.Is(err, bundle.ErrMalformed) {
					t.Logf("case %s: %v", name, err)
				}
			}
		})

		Convey("When the file is not valid JSON or YAML", func() {
			path := bundletest.WriteRaw(t, dir, "garbage.json", []byte("{not json"))
			_, err := bundle.Load(ctx, path)
			So(errors.Is(err, bundle.ErrMalformed), ShouldBeTrue)

			path = bundletest.WriteRaw(t, dir, "garbage.yml", []byte("model: [unclosed"))
			_, err = bundle.Load(ctx, path)
			So(errors.Is(err, bundle.ErrMalformed), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := bundle.Load(cctx, filepath.Join(dir, "bundle.json"))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given hand-built parts", t, func() {
		fixture := bundletest.New(t)

		Convey("When the model is missing", func() {
			_, err := bundle.New(nil, fixture.Tools, fixture.Purposes, bundle.Meta{})
			So(errors.Is(err, bundle.ErrMalformed), ShouldBeTrue)
		})

		Convey("When an encoder is missing", func() {
			_, err := bundle.New(fixture.Model, nil, fixture.Purposes, bundle.Meta{})
			So(errors.Is(err, bundle.ErrMalformed), ShouldBeTrue)
		})

		Convey("When everything is present", func() {
			b, err := bundle.New(fixture.Model, fixture.Tools, fixture.Purposes, bundle.Meta{})
			So(err, ShouldBeNil)
			So(b.SchemaVersion, ShouldEqual, "v1")
			So(b.LoadedAt.IsZero(), ShouldBeFalse)
			So(b.Close(), ShouldBeNil)
		})

		Convey("When asking a nil bundle for categories", func() {
			var b *bundle.Bundle
			c := b.Categories()
			So(c.Tools, ShouldBeEmpty)
			So(c.Purposes, ShouldNotBeNil)
		})
	})
}

func TestHolder(t *testing.T) {
	ctx := context.Background()

	Convey("Given a holder over an artifact path", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "bundle.json")
		h := bundle.NewHolder(path, bundle.WithRetireDelay(0))

		Convey("When nothing has been loaded", func() {
			So(h.Current(), ShouldBeNil)
			So(h.Path(), ShouldEqual, path)
		})

		Convey("When the first reload fails", func() {
			_, err := h.Reload(ctx)

			Convey("Then the holder should stay degraded", func() {
				So(errors.Is(err, bundle.ErrMissing), ShouldBeTrue)
				So(h.Current(), ShouldBeNil)
			})
		})

		Convey("When a reload succeeds and a later one fails", func() {
			bundletest.WriteJSON(t, dir, "bundle.json", bundletest.Artifact())
			first, err := h.Reload(ctx)
			So(err, ShouldBeNil)
			So(h.Current(), ShouldEqual, first)

			So(os.WriteFile(path, []byte("{broken"), 0o600), ShouldBeNil)
			_, err = h.Reload(ctx)

			Convey("Then the previous bundle should be kept", func() {
				So(errors.Is(err, bundle.ErrMalformed), ShouldBeTrue)
				So(h.Current(), ShouldEqual, first)
			})
		})

		Convey("When a reload replaces the bundle", func() {
			bundletest.WriteJSON(t, dir, "bundle.json", bundletest.Artifact())
			first, err := h.Reload(ctx)
			So(err, ShouldBeNil)

			bundletest.WriteJSON(t, dir, "bundle.json", bundletest.LinearArtifact())
			second, err := h.Reload(ctx)

			Convey("Then readers should see the new bundle", func() {
				So(err, ShouldBeNil)
				So(h.Current(), ShouldEqual, second)
				So(second, ShouldNotEqual, first)
				So(second.Kind, ShouldEqual, bundle.KindLinear)
				So(second.Checksum, ShouldNotEqual, first.Checksum)
			})
		})

		Convey("When closing", func() {
			h.Store(bundletest.New(t))
			So(h.Close(), ShouldBeNil)
			So(h.Current(), ShouldBeNil)
		})
	})
}

func TestWatcher(t *testing.T) {
	Convey("Given a watcher on an artifact", t, func() {
		dir := t.TempDir()
		path := bundletest.WriteJSON(t, dir, "bundle.json", bundletest.Artifact())

		changes := make(chan struct{}, 8)
		w := bundle.NewWatcher(path, 20*time.Millisecond, func(context.Context) {
			changes <- struct{}{}
		}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()
		defer func() {
			cancel()
			<-done
		}()
		// give the watcher time to register
		time.Sleep(50 * time.Millisecond)

		Convey("When the artifact is rewritten several times", func() {
			for i := 0; i < 3; i++ {
				bundletest.WriteJSON(t, dir, "bundle.json", bundletest.LinearArtifact())
			}

			Convey("Then OnChange should fire once after the burst", func() {
				select {
				case <-changes:
				case <-time.After(2 * time.Second):
					t.Fatal("watcher did not fire")
				}
				select {
				case <-changes:
					t.Fatal("burst was not debounced")
				case <-time.After(100 * time.Millisecond):
				}
			})
		})

		Convey("When an unrelated file changes", func() {
			bundletest.WriteRaw(t, dir, "other.txt", []byte("x"))

			Convey("Then OnChange should not fire", func() {
				select {
				case <-changes:
					t.Fatal("unexpected change notification")
				case <-time.After(150 * time.Millisecond):
				}
			})
		})
	})
}
