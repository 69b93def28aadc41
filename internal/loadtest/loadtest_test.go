package loadtest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/examcast/internal/adapters/http/api"
	service "github.com/okian/examcast/internal/app"
	"github.com/okian/examcast/internal/domain/bundle/bundletest"
	"github.com/okian/examcast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(service.WithBundle(bundletest.New(t)))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateCases(t *testing.T) {
	Convey("Given a generator config", t, func() {
		cfg := &Config{NumRequests: 300, InvalidRatio: 0.2, UnseenRatio: 0.2}
		stats := &Stats{}

		Convey("When generating cases", func() {
			cases, err := generateCases(context.Background(), cfg, stats)

			Convey("Then each valid case should be a JSON object and ids unique", func() {
				So(err, ShouldBeNil)
				So(cases, ShouldHaveLength, 300)
				So(stats.Generated, ShouldEqual, 300)

				ids := map[string]bool{}
				invalid := 0
				for _, c := range cases {
					So(ids[c.ID], ShouldBeFalse)
					ids[c.ID] = true
					if c.Invalid {
						invalid++
						continue
					}
					var body map[string]interface{}
					So(json.Unmarshal([]byte(c.Body), &body), ShouldBeNil)
					So(c.LastExam, ShouldBeBetweenOrEqual, 0, 100)
				}
				So(invalid, ShouldBeGreaterThan, 0)
				So(invalid, ShouldBeLessThan, 300)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := generateCases(ctx, cfg, stats)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestVerifyResponse(t *testing.T) {
	Convey("Given the default pass mark and floor margin", t, func() {
		cfg := &Config{}
		applyDefaults(cfg)
		valid := Case{ID: "a", LastExam: 50}

		Convey("When a valid response honours every guarantee", func() {
			body := `{"success":true,"predictions":{"final_score_with_ai":55,"last_exam_score":50,"ai_impact":5,"passed_with_ai":"Yes"}}`
			So(verifyResponse(cfg, valid, http.StatusOK, []byte(body)), ShouldBeNil)
		})

		Convey("When the final score is below the floor", func() {
			body := `{"success":true,"predictions":{"final_score_with_ai":50.5,"last_exam_score":50,"ai_impact":0.5,"passed_with_ai":"Yes"}}`
			err := verifyResponse(cfg, valid, http.StatusOK, []byte(body))
			So(errors.Is(err, ErrViolation), ShouldBeTrue)
		})

		Convey("When the pass flag disagrees with the score", func() {
			c := Case{ID: "b", LastExam: 20}
			body := `{"success":true,"predictions":{"final_score_with_ai":30,"last_exam_score":20,"ai_impact":10,"passed_with_ai":"Yes"}}`
			err := verifyResponse(cfg, c, http.StatusOK, []byte(body))
			So(errors.Is(err, ErrViolation), ShouldBeTrue)
		})

		Convey("When the score sits on the pass mark after rounding", func() {
			c := Case{ID: "c", LastExam: 39}
			body := `{"success":true,"predictions":{"final_score_with_ai":40,"last_exam_score":39,"ai_impact":1,"passed_with_ai":"No"}}`
			So(verifyResponse(cfg, c, http.StatusOK, []byte(body)), ShouldBeNil)
		})

		Convey("When an invalid request is rejected", func() {
			c := Case{ID: "d", Invalid: true}
			body := `{"success":false,"error":"invalid input: last_exam_score"}`
			So(verifyResponse(cfg, c, http.StatusBadRequest, []byte(body)), ShouldBeNil)
		})

		Convey("When an invalid request is accepted", func() {
			c := Case{ID: "e", Invalid: true}
			body := `{"success":true,"predictions":{"final_score_with_ai":55,"last_exam_score":50,"ai_impact":5,"passed_with_ai":"Yes"}}`
			err := verifyResponse(cfg, c, http.StatusOK, []byte(body))
			So(errors.Is(err, ErrViolation), ShouldBeTrue)
		})

		Convey("When the body is not JSON", func() {
			err := verifyResponse(cfg, valid, http.StatusBadGateway, []byte("<html>"))
			So(errors.Is(err, ErrViolation), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running prediction server", t, func() {
		srv := newTestServer(t)
		out := filepath.Join(t.TempDir(), "runs", "cases.json")
		cfg := &Config{
			BaseURL:      srv.URL,
			NumRequests:  200,
			Workers:      8,
			Timeout:      5 * time.Second,
			InvalidRatio: 0.2,
			UnseenRatio:  0.2,
			OutputFile:   out,
		}

		Convey("When running the load", func() {
			stats, err := Run(context.Background(), cfg)

			Convey("Then every response should verify", func() {
				So(err, ShouldBeNil)
				So(stats.Submitted, ShouldEqual, 200)
				So(stats.Violations, ShouldEqual, 0)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Succeeded+stats.Rejected, ShouldEqual, 200)
			})

			Convey("Then the cases should be saved", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved []Case
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved, ShouldHaveLength, 200)
			})
		})
	})

	Convey("Given a server that breaks the floor", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/readyz" {
				w.WriteHeader(http.StatusOK)
				return
			}
			_, _ = w.Write([]byte(`{"success":true,"predictions":{"final_score_with_ai":0,"last_exam_score":0,"ai_impact":0,"passed_with_ai":"No"}}`))
		}))
		defer srv.Close()

		Convey("When running the load", func() {
			_, err := Run(context.Background(), &Config{BaseURL: srv.URL, NumRequests: 20, Workers: 2})

			Convey("Then the run should fail with violations", func() {
				So(errors.Is(err, ErrViolation), ShouldBeTrue)
			})
		})
	})

	Convey("Given a server that is not ready", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		Convey("When running the load", func() {
			stats, err := Run(context.Background(), &Config{BaseURL: srv.URL, NumRequests: 5})

			Convey("Then nothing should be submitted", func() {
				So(err, ShouldNotBeNil)
				So(stats.Submitted, ShouldEqual, 0)
			})
		})
	})
}
