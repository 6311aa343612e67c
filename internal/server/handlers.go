package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"runtime/debug"
	"time"

	"github.com/ironsheep/photo-prep-mcp/internal/detection"
	"github.com/ironsheep/photo-prep-mcp/internal/geometry"
	"github.com/ironsheep/photo-prep-mcp/internal/imaging"
	"github.com/ironsheep/photo-prep-mcp/internal/preprocess"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_preprocess").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// paramError marks a failure caused by the caller's arguments rather than
// by the tool itself.
type paramError struct {
	err error
}

func (e *paramError) Error() string { return e.err.Error() }
func (e *paramError) Unwrap() error { return e.err }

func invalidParams(format string, args ...interface{}) error {
	return &paramError{err: fmt.Errorf(format, args...)}
}

// decodeArgs unmarshals tool arguments; missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &paramError{err: err}
	}
	return nil
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments and unknown tools return -32602; tool failures return -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.runTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool call failed", "tool", params.Name, "error", err)
		var pe *paramError
		if errors.As(err, &pe) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}
	s.logger.Debug("tool call", "tool", params.Name, "elapsed", time.Since(start))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// runTool calls executeTool, turning a panic inside a handler into an error
// so one bad call cannot take down the server.
func (s *Server) runTool(ctx context.Context, name string, args json.RawMessage) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool panicked", "tool", name, "panic", r, "stack", string(debug.Stack()))
			result, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()
	return s.executeTool(ctx, name, args)
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	// Pipeline stages
	case "image_scale":
		return s.handleImageScale(args)
	case "image_grayscale":
		return s.handleImageGrayscale(args)
	case "image_blur":
		return s.handleImageBlur(args)
	case "image_crop":
		return s.handleImageCrop(args)

	// Quadrilaterals
	case "image_detect_quadrilaterals":
		return s.handleImageDetectQuadrilaterals(args)
	case "image_select_quadrilateral":
		return s.handleImageSelectQuadrilateral(args)
	case "image_detect_and_crop":
		return s.handleImageDetectAndCrop(args)
	case "image_perspective_correct":
		return s.handleImagePerspectiveCorrect(args)
	case "image_overlay_quadrilaterals":
		return s.handleImageOverlayQuadrilaterals(args)

	case "image_ocr":
		return s.handleImageOCR(ctx, args)
	case "image_preprocess":
		return s.handleImagePreprocess(ctx, args)

	default:
		return nil, invalidParams("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadImage returns the cached image for path.
func (s *Server) loadImage(path string) (image.Image, error) {
	if path == "" {
		return nil, invalidParams("path is required")
	}
	return s.cache.Load(path)
}

// ImageResult carries an image produced by a tool: either written to
// OutputPath or inlined as base64 PNG.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	OutputPath  string `json:"output_path,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

// emitImage saves img to outputPath when given, otherwise encodes it inline.
// A saved file is evicted from the cache so later calls read the new pixels.
func (s *Server) emitImage(img image.Image, outputPath string) (*ImageResult, error) {
	if outputPath != "" {
		if err := imaging.SaveImage(img, outputPath); err != nil {
			return nil, err
		}
		s.cache.Evict(outputPath)
		b := img.Bounds()
		return &ImageResult{Width: b.Dx(), Height: b.Dy(), OutputPath: outputPath}, nil
	}

	enc, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &ImageResult{
		Width:       enc.Width,
		Height:      enc.Height,
		ImageBase64: enc.ImageBase64,
		MimeType:    enc.MimeType,
	}, nil
}

// rectArgs is a pixel rectangle as tools receive it.
type rectArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r rectArgs) rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

func toRectArgs(r image.Rectangle) rectArgs {
	return rectArgs{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// detectionArgs are the optional detector overrides shared by several tools.
type detectionArgs struct {
	Accuracy        string   `json:"accuracy"`
	AspectRatio     *float64 `json:"aspect_ratio"`
	MaxFeatures     *int     `json:"max_features"`
	MinAreaFraction *float64 `json:"min_area_fraction"`
}

// apply overlays the set fields on base and validates the result.
func (a detectionArgs) apply(base detection.Config) (detection.Config, error) {
	cfg := base
	if a.Accuracy != "" {
		acc, err := detection.ParseAccuracy(a.Accuracy)
		if err != nil {
			return cfg, &paramError{err: err}
		}
		cfg.Accuracy = acc
	}
	if a.AspectRatio != nil {
		cfg.AspectRatio = *a.AspectRatio
	}
	if a.MaxFeatures != nil {
		cfg.MaxFeatureCount = *a.MaxFeatures
	}
	if a.MinAreaFraction != nil {
		cfg.MinAreaFraction = *a.MinAreaFraction
	}
	if err := cfg.Validate(); err != nil {
		return cfg, &paramError{err: err}
	}
	return cfg, nil
}

// === Basic Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidParams("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Pipeline Stage Handlers ===

type imageScaleArgs struct {
	Path         string `json:"path"`
	OutputPath   string `json:"output_path"`
	TargetWidth  int    `json:"target_width"`
	TargetHeight int    `json:"target_height"`
}

type scaleResult struct {
	ImageResult
	MaxPixelSize int `json:"max_pixel_size"`
}

func (s *Server) handleImageScale(args json.RawMessage) (interface{}, error) {
	var a imageScaleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.TargetWidth <= 0 || a.TargetHeight <= 0 {
		return nil, invalidParams("target_width and target_height must be positive")
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}

	target := image.Pt(a.TargetWidth, a.TargetHeight)
	thumb, err := imaging.Scale(img, target)
	if err != nil {
		return nil, err
	}
	out, err := s.emitImage(thumb, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return &scaleResult{ImageResult: *out, MaxPixelSize: imaging.ThumbnailMaxPixelSize(target)}, nil
}

type imageFilterArgs struct {
	Path       string   `json:"path"`
	OutputPath string   `json:"output_path"`
	Radius     *float64 `json:"radius"`
}

func (s *Server) handleImageGrayscale(args json.RawMessage) (interface{}, error) {
	var a imageFilterArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	return s.emitImage(imaging.Grayscale(img), a.OutputPath)
}

func (s *Server) handleImageBlur(args json.RawMessage) (interface{}, error) {
	var a imageFilterArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	radius := s.defaults.BlurRadius
	if a.Radius != nil {
		radius = *a.Radius
	}
	if !imaging.ValidBlurRadius(radius) {
		return nil, invalidParams("radius must be in [0, %v], got %v", imaging.MaxBlurRadius, radius)
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	return s.emitImage(imaging.Blur(img, radius), a.OutputPath)
}

type imageCropArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	rectArgs
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	cropped, err := imaging.Crop(img, a.rect())
	if err != nil {
		return nil, err
	}
	return s.emitImage(cropped, a.OutputPath)
}

// === Quadrilateral Handlers ===

type imageDetectArgs struct {
	Path string `json:"path"`
	detectionArgs
}

type detectResult struct {
	Detector      string              `json:"detector"`
	Count         int                 `json:"count"`
	Features      []detection.Feature `json:"features"`
	SelectedIndex int                 `json:"selected_index"`
}

func (s *Server) handleImageDetectQuadrilaterals(args json.RawMessage) (interface{}, error) {
	var a imageDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg, err := a.apply(s.defaults.Detection)
	if err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}

	det := s.processor.Detector()
	features, err := det.Detect(img, cfg)
	if err != nil {
		return nil, err
	}
	quads := make([]geometry.Quadrilateral, len(features))
	for i, f := range features {
		quads[i] = f.Quad
	}

	return &detectResult{
		Detector:      det.Name(),
		Count:         len(features),
		Features:      features,
		SelectedIndex: geometry.SelectBestIndex(quads),
	}, nil
}

type selectArgs struct {
	Candidates []geometry.Quadrilateral `json:"candidates"`
}

type selectResult struct {
	Found            bool                    `json:"found"`
	Index            int                     `json:"index"`
	Count            int                     `json:"count"`
	Quad             *geometry.Quadrilateral `json:"quad,omitempty"`
	Width            float64                 `json:"width,omitempty"`
	Height           float64                 `json:"height,omitempty"`
	Score            float64                 `json:"score,omitempty"`
	PassesAspectGate bool                    `json:"passes_aspect_gate"`
}

func (s *Server) handleImageSelectQuadrilateral(args json.RawMessage) (interface{}, error) {
	var a selectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Candidates == nil {
		return nil, invalidParams("candidates is required")
	}

	idx := geometry.SelectBestIndex(a.Candidates)
	res := &selectResult{Found: idx >= 0, Index: idx, Count: len(a.Candidates)}
	if idx >= 0 {
		q := a.Candidates[idx]
		res.Quad = &q
		res.Width = q.Width()
		res.Height = q.Height()
		res.Score = q.Score()
		res.PassesAspectGate = q.PassesAspectGate()
	}
	return res, nil
}

type imageDetectAndCropArgs struct {
	Path        string `json:"path"`
	ProcessPath string `json:"process_path"`
	OutputPath  string `json:"output_path"`
	detectionArgs
}

type detectAndCropResult struct {
	Found         bool                    `json:"found"`
	Quad          *geometry.Quadrilateral `json:"quad,omitempty"`
	SelectedIndex int                     `json:"selected_index"`
	Candidates    []detection.Feature     `json:"candidates,omitempty"`
	Bounds        *rectArgs               `json:"bounds,omitempty"`
	Image         *ImageResult            `json:"image,omitempty"`
}

func (s *Server) handleImageDetectAndCrop(args json.RawMessage) (interface{}, error) {
	var a imageDetectAndCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg, err := a.apply(s.defaults.Detection)
	if err != nil {
		return nil, err
	}
	cropFrom, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	detectIn := cropFrom
	if a.ProcessPath != "" {
		if detectIn, err = s.loadImage(a.ProcessPath); err != nil {
			return nil, err
		}
		if detectIn.Bounds() != cropFrom.Bounds() {
			return nil, invalidParams("process_path bounds %v differ from path bounds %v",
				detectIn.Bounds(), cropFrom.Bounds())
		}
	}

	sel, err := s.processor.DetectAndCrop(detectIn, cropFrom, cfg)
	if errors.Is(err, preprocess.ErrNoRectangle) {
		return &detectAndCropResult{Found: false, SelectedIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	out, err := s.emitImage(sel.Image, a.OutputPath)
	if err != nil {
		return nil, err
	}
	bounds := toRectArgs(sel.Bounds)
	return &detectAndCropResult{
		Found:         true,
		Quad:          &sel.Quad,
		SelectedIndex: sel.Index,
		Candidates:    sel.Candidates,
		Bounds:        &bounds,
		Image:         out,
	}, nil
}

type imagePerspectiveArgs struct {
	Path            string                  `json:"path"`
	OutputPath      string                  `json:"output_path"`
	Quad            *geometry.Quadrilateral `json:"quad"`
	ApplyCorrection *bool                   `json:"apply_correction"`
}

type perspectiveResult struct {
	ImageResult
	Corrected bool `json:"corrected"`
}

func (s *Server) handleImagePerspectiveCorrect(args json.RawMessage) (interface{}, error) {
	var a imagePerspectiveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Quad == nil {
		return nil, invalidParams("quad is required")
	}
	apply := true
	if a.ApplyCorrection != nil {
		apply = *a.ApplyCorrection
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}

	corrected, err := preprocess.Unskew(img, *a.Quad, apply)
	if errors.Is(err, imaging.ErrDegenerateQuad) || errors.Is(err, imaging.ErrOutputTooLarge) {
		return nil, &paramError{err: err}
	}
	if err != nil {
		return nil, err
	}
	out, err := s.emitImage(corrected, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return &perspectiveResult{ImageResult: *out, Corrected: apply}, nil
}

type imageOverlayArgs struct {
	Path           string                   `json:"path"`
	OutputPath     string                   `json:"output_path"`
	Quadrilaterals []geometry.Quadrilateral `json:"quadrilaterals"`
	Highlight      *int                     `json:"highlight"`
	OutlineColor   string                   `json:"outline_color"`
	HighlightColor string                   `json:"highlight_color"`
}

type overlayResult struct {
	ImageResult
	Count     int `json:"count"`
	Highlight int `json:"highlight"`
}

func (s *Server) handleImageOverlayQuadrilaterals(args json.RawMessage) (interface{}, error) {
	var a imageOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}

	highlight := geometry.SelectBestIndex(a.Quadrilaterals)
	if a.Highlight != nil {
		highlight = *a.Highlight
	}
	drawn := imaging.DrawQuadrilaterals(img, a.Quadrilaterals, imaging.OverlayStyle{
		OutlineHex:   a.OutlineColor,
		HighlightHex: a.HighlightColor,
		Highlight:    highlight,
	})
	out, err := s.emitImage(drawn, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return &overlayResult{ImageResult: *out, Count: len(a.Quadrilaterals), Highlight: highlight}, nil
}

// === OCR ===

type imageOCRArgs struct {
	Path     string    `json:"path"`
	Language string    `json:"language"`
	Region   *rectArgs `json:"region"`
}

func (s *Server) handleImageOCR(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageOCRArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.Region != nil {
		return s.ocr.ExtractTextFromRegion(img, a.Region.rect(), a.Language)
	}
	return s.ocr.ExtractText(img, a.Language)
}

// === Full Pipeline ===

type imagePreprocessArgs struct {
	Path            string   `json:"path"`
	OutputPath      string   `json:"output_path"`
	TargetWidth     *int     `json:"target_width"`
	TargetHeight    *int     `json:"target_height"`
	BlurRadius      *float64 `json:"blur_radius"`
	ApplyCorrection *bool    `json:"apply_correction"`
	RecognizeText   *bool    `json:"recognize_text"`
	Language        string   `json:"language"`
	detectionArgs
}

// options overlays the set arguments on the server defaults.
func (a imagePreprocessArgs) options(base preprocess.Options) (preprocess.Options, error) {
	opts := base
	if a.TargetWidth != nil {
		opts.TargetSize.X = *a.TargetWidth
	}
	if a.TargetHeight != nil {
		opts.TargetSize.Y = *a.TargetHeight
	}
	if a.BlurRadius != nil {
		opts.BlurRadius = *a.BlurRadius
	}
	if a.ApplyCorrection != nil {
		opts.ApplyCorrection = *a.ApplyCorrection
	}
	if a.RecognizeText != nil {
		opts.RecognizeText = *a.RecognizeText
	}
	if a.Language != "" {
		opts.Language = a.Language
	}

	det, err := a.apply(opts.Detection)
	if err != nil {
		return opts, err
	}
	opts.Detection = det

	if err := opts.Validate(); err != nil {
		return opts, &paramError{err: err}
	}
	return opts, nil
}

type preprocessResult struct {
	Found bool `json:"found"`
	*preprocess.Result
	Output *ImageResult `json:"image,omitempty"`
}

func (s *Server) handleImagePreprocess(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imagePreprocessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	opts, err := a.options(s.defaults)
	if err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.processor.Process(ctx, img, opts)
	if errors.Is(err, preprocess.ErrNoRectangle) {
		return &preprocessResult{Found: false}, nil
	}
	if err != nil {
		return nil, err
	}

	out, err := s.emitImage(res.Image, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return &preprocessResult{Found: true, Result: res, Output: out}, nil
}
