package regressor

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	envOnce sync.Once
	envErr  error
)

// initEnvironment initializes the process-wide ONNX runtime once.
func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("%w: %v", ErrRuntime, err)
		}
	})
	return envErr
}

// ONNXConfig locates an exported model and its tensor names.
type ONNXConfig struct {
	ModelPath   string
	LibraryPath string
	Input       string
	Output      string
	NumFeatures int
}

// ONNX evaluates a regression graph exported to ONNX. The graph takes a
// float32 tensor of shape [1, n] and yields a single float32.
type ONNX struct {
	mu        sync.RWMutex
	session   *ort.DynamicAdvancedSession
	nFeatures int
}

// NewONNX loads the model and opens a session.
func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	if cfg.NumFeatures <= 0 {
		return nil, fmt.Errorf("%w: n_features must be positive", ErrInvalidModel)
	}
	if cfg.Input == "" || cfg.Output == "" {
		return nil, fmt.Errorf("%w: onnx input and output names are required", ErrInvalidModel)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: onnx model: %v", ErrInvalidModel, err)
	}
	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: session options: %v", ErrRuntime, err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.Input},
		[]string{cfg.Output},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: load onnx model: %v", ErrInvalidModel, err)
	}
	return &ONNX{session: session, nFeatures: cfg.NumFeatures}, nil
}

func (o *ONNX) NumFeatures() int { return o.nFeatures }

// Predict runs the graph on one row.
func (o *ONNX) Predict(x []float64) (float64, error) {
	if err := checkWidth(x, o.nFeatures); err != nil {
		return 0, err
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.session == nil {
		return 0, ErrClosed
	}

	row := make([]float32, len(x))
	for i, v := range x {
		row[i] = float32(v)
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(len(row))), row)
	if err != nil {
		return 0, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := o.session.Run(
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
	); err != nil {
		return 0, fmt.Errorf("onnx inference: %w", err)
	}
	data := output.GetData()
	if len(data) == 0 {
		return 0, fmt.Errorf("onnx inference: empty output")
	}
	return float64(data[0]), nil
}

// Close destroys the session. Further predictions fail with ErrClosed.
func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}
