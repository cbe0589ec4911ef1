package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

// cocoClasses is the class count of stock YOLOv8 exports
const cocoClasses = 80

// YOLOConfig configures a YOLOv8 ONNX detector
type YOLOConfig struct {
	ModelPath   string
	LibraryPath string
	InputSize   int
	Classes     int
	Confidence  float64
	IoU         float64
}

// DefaultYOLOConfig matches the ultralytics predict defaults for yolov8n
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:  "./models/yolov8n.onnx",
		InputSize:  640,
		Classes:    cocoClasses,
		Confidence: 0.25,
		IoU:        0.7,
	}
}

// YOLODetector runs a YOLOv8 ONNX export through ONNX Runtime
type YOLODetector struct {
	logger  zerolog.Logger
	config  YOLOConfig
	anchors int
	session *ort.DynamicAdvancedSession
}

// NewYOLODetector loads the model and creates an inference session
func NewYOLODetector(logger zerolog.Logger, cfg YOLOConfig) (*YOLODetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if cfg.InputSize <= 0 || cfg.InputSize%32 != 0 {
		return nil, fmt.Errorf("input size must be a positive multiple of 32, got %d", cfg.InputSize)
	}
	if cfg.Classes <= 0 {
		cfg.Classes = cocoClasses
	}

	if err := InitRuntime(cfg.LibraryPath); err != nil {
		return nil, err
	}

	inputNames := []string{"images"}
	outputNames := []string{"output0"}

	sess, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, outputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create YOLO session: %w", err)
	}

	logger.Info().
		Str("model", cfg.ModelPath).
		Int("input_size", cfg.InputSize).
		Float64("confidence", cfg.Confidence).
		Float64("iou", cfg.IoU).
		Msg("YOLO model loaded")

	return &YOLODetector{
		logger:  logger.With().Str("detector", "yolo").Logger(),
		config:  cfg,
		anchors: anchorCount(cfg.InputSize),
		session: sess,
	}, nil
}

// NewYOLOFactory returns a factory that loads a fresh detector on each call
func NewYOLOFactory(logger zerolog.Logger, cfg YOLOConfig) DetectorFactory {
	return func() (Detector, error) {
		return NewYOLODetector(logger, cfg)
	}
}

// Detect runs inference on one BGR frame and returns boxes in frame pixels
func (y *YOLODetector) Detect(ctx context.Context, frame gocv.Mat) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	img, err := frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("frame conversion failed: %w", err)
	}

	size := y.config.InputSize
	data, lb := preprocessImage(img, size)

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create images tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(4+y.config.Classes), int64(y.anchors)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output0 tensor: %w", err)
	}
	defer output.Destroy()

	if err := y.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return nil, fmt.Errorf("YOLO inference failed: %w", err)
	}

	candidates := decodeOutput(output.GetData(), y.config.Classes, y.anchors, y.config.Confidence)
	kept := nonMaxSuppression(candidates, y.config.IoU)
	detections := toSourceBoxes(kept, lb, frame.Cols(), frame.Rows())

	y.logger.Debug().
		Int("candidates", len(candidates)).
		Int("detections", len(detections)).
		Msg("YOLO inference complete")

	return detections, nil
}

// Close releases the inference session. The runtime itself stays up.
func (y *YOLODetector) Close() error {
	if y.session != nil {
		err := y.session.Destroy()
		y.session = nil
		return err
	}
	return nil
}
