package features_test

import (
	"errors"
	"testing"

	"github.com/okian/examcast/internal/domain/category"
	"github.com/okian/examcast/internal/domain/features"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSchemaV1(t *testing.T) {
	Convey("Given the serving schema", t, func() {
		schema := features.SchemaV1

		Convey("Then the column order should match the fitted order", func() {
			So(schema.Names(), ShouldResemble, []string{
				"ai_tools_used_encoded",
				"ai_usage_purpose_encoded",
				"ai_dependency_score",
				"ai_generated_content_percentage",
				"last_exam_score",
				"ai_usage_time_hours",
				"study_consistency_index",
				"sleep_hours",
			})
		})

		Convey("When verifying an artifact with the same columns", func() {
			err := schema.Verify("v1", schema.Names())

			Convey("Then it should pass", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the artifact omits its schema version", func() {
			So(schema.Verify("", schema.Names()), ShouldBeNil)
		})

		Convey("When the artifact swaps two columns", func() {
			names := schema.Names()
			names[4], names[5] = names[5], names[4]
			err := schema.Verify("v1", names)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, features.ErrSchemaMismatch), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "column 4")
			})
		})

		Convey("When the artifact has a different width", func() {
			err := schema.Verify("v1", schema.Names()[:7])
			So(errors.Is(err, features.ErrSchemaMismatch), ShouldBeTrue)
		})

		Convey("When the artifact declares another schema version", func() {
			err := schema.Verify("v2", schema.Names())
			So(errors.Is(err, features.ErrSchemaMismatch), ShouldBeTrue)
		})
	})
}

func TestParseRequest(t *testing.T) {
	Convey("Given a prediction request body", t, func() {
		Convey("When it is an empty object", func() {
			req, err := features.ParseRequest([]byte(`{}`))

			Convey("Then every field should take its default", func() {
				So(err, ShouldBeNil)
				So(req, ShouldResemble, features.DefaultRequest())
				So(req.Tool, ShouldEqual, "None")
				So(req.Purpose, ShouldEqual, "None")
				So(req.DependencyScore, ShouldEqual, 5)
				So(req.ContentPct, ShouldEqual, 50)
				So(req.LastExamScore, ShouldEqual, 50)
				So(req.UsageHours, ShouldEqual, 1.0)
				So(req.StudyConsistency, ShouldEqual, 5)
				So(req.SleepHours, ShouldEqual, 7)
			})
		})

		Convey("When it sets every field", func() {
			body := `{
				"ai_tools_used": "ChatGPT",
				"ai_usage_purpose": "Homework",
				"ai_dependency_score": 8,
				"ai_generated_content_percentage": 30.5,
				"last_exam_score": 72,
				"ai_usage_hours": 2.5,
				"study_consistency_index": 6.2,
				"sleep_hours": 6
			}`
			req, err := features.ParseRequest([]byte(body))

			Convey("Then the values should be carried over", func() {
				So(err, ShouldBeNil)
				So(req, ShouldResemble, features.Request{
					Tool:             "ChatGPT",
					Purpose:          "Homework",
					DependencyScore:  8,
					ContentPct:       30.5,
					LastExamScore:    72,
					UsageHours:       2.5,
					StudyConsistency: 6.2,
					SleepHours:       6,
				})
			})
		})

		Convey("When numbers arrive as strings", func() {
			req, err := features.ParseRequest([]byte(`{"last_exam_score": " 62.5 ", "sleep_hours": "8"}`))

			Convey("Then they should be coerced", func() {
				So(err, ShouldBeNil)
				So(req.LastExamScore, ShouldEqual, 62.5)
				So(req.SleepHours, ShouldEqual, 8)
			})
		})

		Convey("When a numeric field is not a number", func() {
			_, err := features.ParseRequest([]byte(`{"last_exam_score": "abc"}`))

			Convey("Then it should fail naming the field and the value", func() {
				So(errors.Is(err, features.ErrInvalidInput), ShouldBeTrue)
				var inputErr *features.InvalidInputError
				So(errors.As(err, &inputErr), ShouldBeTrue)
				So(inputErr.Field, ShouldEqual, "last_exam_score")
				So(inputErr.Value, ShouldEqual, "abc")
			})
		})

		Convey("When a numeric field has the wrong JSON type", func() {
			for _, body := range []string{
				`{"sleep_hours": null}`,
				`{"sleep_hours": true}`,
				`{"sleep_hours": [7]}`,
				`{"sleep_hours": {"v": 7}}`,
			} {
				_, err := features.ParseRequest([]byte(body))
				var inputErr *features.InvalidInputError
				So(errors.As(err, &inputErr), ShouldBeTrue)
				So(inputErr.Field, ShouldEqual, "sleep_hours")
			}
		})

		Convey("When a numeric field is not finite", func() {
			_, err := features.ParseRequest([]byte(`{"ai_usage_hours": "NaN"}`))
			So(errors.Is(err, features.ErrInvalidInput), ShouldBeTrue)

			_, err = features.ParseRequest([]byte(`{"ai_usage_hours": 1e400}`))
			So(errors.Is(err, features.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When a numeric field is too large to keep unit precision", func() {
			for _, body := range []string{
				`{"last_exam_score": 1e17}`,
				`{"last_exam_score": "-1e16"}`,
				`{"ai_generated_content_percentage": 1e308}`,
			} {
				_, err := features.ParseRequest([]byte(body))
				var inputErr *features.InvalidInputError
				So(errors.As(err, &inputErr), ShouldBeTrue)
				So(inputErr.Reason, ShouldEqual, "magnitude too large")
			}

			req, err := features.ParseRequest([]byte(`{"last_exam_score": 1e15}`))
			So(err, ShouldBeNil)
			So(req.LastExamScore, ShouldEqual, features.MaxMagnitude)
		})

		Convey("When categorical fields are null or not strings", func() {
			req, err := features.ParseRequest([]byte(`{"ai_tools_used": null, "ai_usage_purpose": 3}`))

			Convey("Then null should take the default and other types become labels", func() {
				So(err, ShouldBeNil)
				So(req.Tool, ShouldEqual, "None")
				So(req.Purpose, ShouldEqual, "3")
			})
		})

		Convey("When the body is not a JSON object", func() {
			for _, body := range []string{``, `not json`, `[1,2]`, `"x"`} {
				_, err := features.ParseRequest([]byte(body))
				var inputErr *features.InvalidInputError
				So(errors.As(err, &inputErr), ShouldBeTrue)
				So(inputErr.Field, ShouldEqual, "body")
			}
		})
	})
}

func TestAssembler(t *testing.T) {
	Convey("Given an assembler over fitted encoders", t, func() {
		tools, err := category.New("tools", []string{"ChatGPT", "None", "Other"})
		So(err, ShouldBeNil)
		purposes, err := category.New("purposes", []string{"Homework", "Research", "None"})
		So(err, ShouldBeNil)
		asm := features.NewAssembler(tools, purposes)

		Convey("When assembling a request with known labels", func() {
			req := features.Request{
				Tool:             "Other",
				Purpose:          "Research",
				DependencyScore:  3,
				ContentPct:       40,
				LastExamScore:    65,
				UsageHours:       1.5,
				StudyConsistency: 7,
				SleepHours:       8,
			}
			out, err := asm.Assemble(req)

			Convey("Then the vector should follow schema order", func() {
				So(err, ShouldBeNil)
				So(out.Vector, ShouldResemble, features.Vector{2, 1, 3, 40, 65, 1.5, 7, 8})
				So(out.Fallbacks, ShouldBeEmpty)
				So(out.Vector.Slice(), ShouldHaveLength, features.Width)
			})
		})

		Convey("When assembling defaults", func() {
			out, err := asm.Assemble(features.DefaultRequest())

			Convey("Then None should encode to its fitted position", func() {
				So(err, ShouldBeNil)
				So(out.Vector[features.ColTool], ShouldEqual, 1)
				So(out.Vector[features.ColPurpose], ShouldEqual, 2)
			})
		})

		Convey("When labels are unseen", func() {
			req := features.DefaultRequest()
			req.Tool = "Gemini"
			req.Purpose = "Gaming"
			out, err := asm.Assemble(req)

			Convey("Then both should collapse to code 0 and be reported", func() {
				So(err, ShouldBeNil)
				So(out.Vector[features.ColTool], ShouldEqual, 0)
				So(out.Vector[features.ColPurpose], ShouldEqual, 0)
				So(out.Fallbacks, ShouldResemble, []string{"tools", "purposes"})
			})
		})

		Convey("When an encoder is missing", func() {
			broken := features.NewAssembler(tools, nil)
			_, err := broken.Assemble(features.DefaultRequest())

			Convey("Then it should fail with an encoding error", func() {
				So(errors.Is(err, category.ErrEncoding), ShouldBeTrue)
			})
		})
	})
}
