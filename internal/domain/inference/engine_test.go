package inference_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/examcast/internal/domain/features"
	"github.com/okian/examcast/internal/domain/inference"
	"github.com/okian/examcast/internal/domain/regressor"
	. "github.com/smartystreets/goconvey/convey"
)

type stubRegressor struct {
	width int
	out   float64
	err   error
}

func (s stubRegressor) NumFeatures() int { return s.width }
func (s stubRegressor) Predict([]float64) (float64, error) {
	return s.out, s.err
}

func TestEngine(t *testing.T) {
	ctx := context.Background()
	vec := features.Vector{1, 2, 5, 50, 50, 1, 5, 7}

	Convey("Given an engine over a linear model", t, func() {
		lin, err := regressor.NewLinear(1, []float64{0, 0, 0, 0, 1, 0, 0, 0})
		So(err, ShouldBeNil)
		engine := inference.New(lin)

		Convey("When predicting", func() {
			y, err := engine.Predict(ctx, vec)

			Convey("Then the raw model output should be returned", func() {
				So(err, ShouldBeNil)
				So(y, ShouldEqual, 51)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := engine.Predict(cctx, vec)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given no model", t, func() {
		var nilEngine *inference.Engine

		Convey("Then every prediction should report the model unavailable", func() {
			_, err := inference.New(nil).Predict(ctx, vec)
			So(errors.Is(err, inference.ErrModelUnavailable), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "model not loaded")

			_, err = nilEngine.Predict(ctx, vec)
			var unavailable *inference.ModelUnavailableError
			So(errors.As(err, &unavailable), ShouldBeTrue)
		})
	})

	Convey("Given a failing model", t, func() {
		boom := errors.New("boom")

		Convey("Then its error should be surfaced with the cause attached", func() {
			_, err := inference.New(stubRegressor{width: 8, err: boom}).Predict(ctx, vec)
			So(errors.Is(err, inference.ErrModelUnavailable), ShouldBeTrue)
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("And non-finite output should be rejected", func() {
			_, err := inference.New(stubRegressor{width: 8, out: math.NaN()}).Predict(ctx, vec)
			So(errors.Is(err, inference.ErrModelUnavailable), ShouldBeTrue)

			_, err = inference.New(stubRegressor{width: 8, out: math.Inf(1)}).Predict(ctx, vec)
			So(errors.Is(err, inference.ErrModelUnavailable), ShouldBeTrue)
		})

		Convey("And a width mismatch should be rejected", func() {
			_, err := inference.New(stubRegressor{width: 3}).Predict(ctx, vec)
			So(errors.Is(err, regressor.ErrFeatureCount), ShouldBeTrue)
		})
	})
}
