package loadtest

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumRequests  int           // Number of requests to generate
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	InvalidRatio float64       // Share of deliberately invalid requests
	UnseenRatio  float64       // Share of requests with labels the bundle never saw
	PassMark     float64       // Pass mark the server is configured with
	FloorMargin  float64       // Floor margin the server is configured with
	OutputFile   string        // Optional file for the generated cases
	Verbose      bool          // Log every violation
}

// Case is one generated request and what the generator knows about it.
type Case struct {
	ID       string  `json:"id"`
	Body     string  `json:"body"`
	Invalid  bool    `json:"invalid"`
	LastExam float64 `json:"last_exam_score"`
}

// Envelope is the POST /predict response.
type Envelope struct {
	Success     bool         `json:"success"`
	Predictions *Predictions `json:"predictions,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Predictions mirrors the success payload.
type Predictions struct {
	FinalScoreWithAI float64 `json:"final_score_with_ai"`
	LastExamScore    float64 `json:"last_exam_score"`
	AIImpact         float64 `json:"ai_impact"`
	PassedWithAI     string  `json:"passed_with_ai"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Succeeded  int
	Rejected   int
	Failed     int
	Violations int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
