package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/okian/examcast/internal/domain/bundle"
	"github.com/okian/examcast/internal/domain/bundle/bundletest"
	. "github.com/smartystreets/goconvey/convey"
)

func run(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(append([]string{"bundlectl"}, args...))
	return stdout.String(), err
}

func TestInspect(t *testing.T) {
	Convey("Given a forest bundle on disk", t, func() {
		dir := t.TempDir()
		path := bundletest.WriteJSON(t, dir, "model.json", bundletest.Artifact())

		Convey("When inspecting as JSON", func() {
			out, err := run("inspect", path)

			Convey("Then the report should describe the bundle", func() {
				So(err, ShouldBeNil)
				var r report
				So(json.Unmarshal([]byte(out), &r), ShouldBeNil)
				So(r.Kind, ShouldEqual, bundle.KindForest)
				So(r.SchemaVersion, ShouldEqual, "v1")
				So(r.FeatureCols, ShouldHaveLength, 8)
				So(r.ToolsClasses, ShouldResemble, bundletest.Tools)
				So(r.PurposeClasses, ShouldResemble, bundletest.Purposes)
				So(r.Trees, ShouldBeGreaterThan, 0)
				So(r.Checksum, ShouldHaveLength, 64)
			})
		})

		Convey("When inspecting as YAML", func() {
			out, err := run("inspect", "--format", "yaml", path)

			Convey("Then the output should parse as YAML", func() {
				So(err, ShouldBeNil)
				var r map[string]interface{}
				So(yaml.Unmarshal([]byte(out), &r), ShouldBeNil)
				So(r["kind"], ShouldEqual, "forest")
			})
		})

		Convey("When the format is unknown", func() {
			_, err := run("inspect", "--format", "toml", path)
			So(errors.Is(err, errUnknownFormat), ShouldBeTrue)
		})

		Convey("When no path is given", func() {
			_, err := run("inspect")
			So(errors.Is(err, errBundleArg), ShouldBeTrue)
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given bundles on disk", t, func() {
		dir := t.TempDir()

		Convey("When the bundle is valid", func() {
			path := bundletest.WriteYAML(t, dir, "model.yaml", bundletest.LinearArtifact())
			out, err := run("verify", path)

			Convey("Then it should report ok", func() {
				So(err, ShouldBeNil)
				So(out, ShouldStartWith, "ok ")
				So(out, ShouldContainSubstring, "kind=linear")
			})
		})

		Convey("When the bundle is missing", func() {
			_, err := run("verify", filepath.Join(dir, "absent.json"))
			So(errors.Is(err, bundle.ErrMissing), ShouldBeTrue)
		})

		Convey("When the bundle is malformed", func() {
			path := bundletest.WriteRaw(t, dir, "broken.json", []byte(`{"format_version": 1}`))
			_, err := run("verify", path)
			So(errors.Is(err, bundle.ErrMalformed), ShouldBeTrue)
		})
	})
}

func TestPredict(t *testing.T) {
	Convey("Given a forest bundle on disk", t, func() {
		dir := t.TempDir()
		path := bundletest.WriteJSON(t, dir, "model.json", bundletest.Artifact())

		Convey("When predicting from an argument", func() {
			out, err := run("predict", path, `{"last_exam_score": 90}`)

			Convey("Then the envelope should carry the calibrated score", func() {
				So(err, ShouldBeNil)
				var env map[string]interface{}
				So(json.Unmarshal([]byte(out), &env), ShouldBeNil)
				So(env["success"], ShouldBeTrue)
				preds := env["predictions"].(map[string]interface{})
				So(preds["final_score_with_ai"], ShouldEqual, 91.0)
				So(preds["ai_impact"], ShouldEqual, 1.0)
				So(preds["passed_with_ai"], ShouldEqual, "Yes")
			})
		})

		Convey("When predicting from a file", func() {
			body := bundletest.WriteRaw(t, dir, "body.json", []byte(`{}`))
			out, err := run("predict", "--file", body, path)

			Convey("Then defaults should apply", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, `"final_score_with_ai": 55`)
			})
		})

		Convey("When the body is invalid", func() {
			out, err := run("predict", path, `{"sleep_hours": "lots"}`)

			Convey("Then the failure envelope should print and the command fail", func() {
				So(errors.Is(err, errPredictionFailed), ShouldBeTrue)
				So(out, ShouldContainSubstring, `"success": false`)
				So(out, ShouldContainSubstring, "sleep_hours")
			})
		})

		Convey("When the bundle does not exist", func() {
			out, err := run("predict", filepath.Join(dir, "absent.json"))

			Convey("Then the model should be reported unavailable", func() {
				So(errors.Is(err, errPredictionFailed), ShouldBeTrue)
				So(out, ShouldContainSubstring, "model not loaded")
			})
		})
	})
}
