package preprocess

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/photo-prep-mcp/internal/detection"
	"github.com/ironsheep/photo-prep-mcp/internal/geometry"
	"github.com/ironsheep/photo-prep-mcp/internal/imaging"
	"github.com/ironsheep/photo-prep-mcp/internal/logging"
)

var (
	// ErrNoRectangle is returned when the detector finds no candidates.
	ErrNoRectangle = errors.New("no rectangle detected")

	// ErrNoRecognizer is returned when text recognition is requested from a
	// Processor built without a TextRecognizer.
	ErrNoRecognizer = errors.New("text recognition not available")
)

// DefaultLanguage is the OCR language used when Options.Language is empty.
const DefaultLanguage = "eng"

// TextRecognizer extracts text from an image.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, img image.Image, language string) (string, error)
}

// Options controls a Process run.
type Options struct {
	// TargetSize is the size of the view the photo is prepared for. The
	// working thumbnail's longest side is max(X, Y)/2.
	TargetSize image.Point

	// BlurRadius is the Gaussian radius applied before detection.
	BlurRadius float64

	// Detection configures the rectangle detector.
	Detection detection.Config

	// ApplyCorrection perspective-corrects the crop. When false the crop is
	// returned as is.
	ApplyCorrection bool

	// RecognizeText runs OCR on the output image.
	RecognizeText bool

	// Language is the Tesseract language code for OCR.
	Language string
}

// DefaultOptions returns the camera pipeline settings: a 2048x2048 view,
// blur radius 5, detector defaults, no correction and no OCR.
func DefaultOptions() Options {
	return Options{
		TargetSize: image.Pt(2048, 2048),
		BlurRadius: imaging.DefaultBlurRadius,
		Detection:  detection.DefaultConfig(),
		Language:   DefaultLanguage,
	}
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if imaging.ThumbnailMaxPixelSize(o.TargetSize) < 1 {
		return fmt.Errorf("target size %dx%d too small", o.TargetSize.X, o.TargetSize.Y)
	}
	if !imaging.ValidBlurRadius(o.BlurRadius) {
		return fmt.Errorf("blur radius must be in [0, %v], got %v", imaging.MaxBlurRadius, o.BlurRadius)
	}
	if err := o.Detection.Validate(); err != nil {
		return fmt.Errorf("invalid detection config: %w", err)
	}
	return nil
}

// Selection is the outcome of DetectAndCrop.
type Selection struct {
	// Quad is the chosen quadrilateral in the detection image's coordinates.
	Quad geometry.Quadrilateral `json:"quad"`

	// Index is Quad's position in Candidates.
	Index int `json:"index"`

	// Candidates holds every detector result, best first.
	Candidates []detection.Feature `json:"candidates"`

	// Bounds is the region actually cropped: Quad's bounding box clipped to
	// the image.
	Bounds image.Rectangle `json:"bounds"`

	// Image is the crop, anchored at (0,0).
	Image image.Image `json:"-"`
}

// LocalQuad returns Quad translated into the cropped image's coordinates.
func (s *Selection) LocalQuad() geometry.Quadrilateral {
	return s.Quad.Translate(-float64(s.Bounds.Min.X), -float64(s.Bounds.Min.Y))
}

// Result is the outcome of Process.
type Result struct {
	RequestID string `json:"request_id"`

	Quad           geometry.Quadrilateral `json:"quad"`
	SelectedIndex  int                    `json:"selected_index"`
	CandidateCount int                    `json:"candidate_count"`
	Candidates     []detection.Feature    `json:"candidates"`

	// ThumbnailSize is the working thumbnail's size; Quad is in its
	// coordinates.
	ThumbnailSize image.Point `json:"thumbnail_size"`

	Corrected bool        `json:"corrected"`
	Image     image.Image `json:"-"`
	Text      string      `json:"text,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Processor runs the pipeline. It holds no per-call state and is safe for
// concurrent use.
type Processor struct {
	detector   detection.Detector
	recognizer TextRecognizer
	logger     *logging.Logger
}

// New creates a Processor. A nil detector selects detection.New(); a nil
// recognizer disables OCR; a nil logger discards output.
func New(detector detection.Detector, recognizer TextRecognizer, logger *logging.Logger) *Processor {
	if detector == nil {
		detector = detection.New()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Processor{
		detector:   detector,
		recognizer: recognizer,
		logger:     logger,
	}
}

// Detector returns the detector backend in use.
func (p *Processor) Detector() detection.Detector {
	return p.detector
}

// DetectAndCrop finds quadrilaterals in detectIn, selects the best with
// geometry.SelectBest and crops cropFrom to its bounding box.
//
// Parameters:
//   - detectIn: the image handed to the detector, typically the grayscale,
//     blurred version of cropFrom
//   - cropFrom: the image the crop is cut from; it must share detectIn's
//     coordinate space
//   - cfg: detector tuning, already validated by the caller
//
// Returns:
//   - *Selection: the chosen quad, its index, every candidate and the crop
//
// # Errors
//
//   - ErrNoRectangle when the detector finds nothing
//   - A wrapped detector error if detection fails
//   - A wrapped crop error if the quad's bounds miss cropFrom entirely
func (p *Processor) DetectAndCrop(detectIn, cropFrom image.Image, cfg detection.Config) (*Selection, error) {
	features, err := p.detector.Detect(detectIn, cfg)
	if err != nil {
		return nil, fmt.Errorf("rectangle detection failed: %w", err)
	}
	if len(features) == 0 {
		return nil, ErrNoRectangle
	}

	quads := make([]geometry.Quadrilateral, len(features))
	for i, f := range features {
		quads[i] = f.Quad
	}
	idx := geometry.SelectBestIndex(quads)
	best := quads[idx]

	p.logger.Debug("rectangle selected",
		"detector", p.detector.Name(),
		"candidates", len(quads),
		"index", idx,
		"width", fmt.Sprintf("%.1f", best.Width()),
		"height", fmt.Sprintf("%.1f", best.Height()))

	cropped, err := CropToFeature(cropFrom, best)
	if err != nil {
		return nil, err
	}

	return &Selection{
		Quad:       best,
		Index:      idx,
		Candidates: features,
		Bounds:     best.Bounds().Intersect(cropFrom.Bounds()),
		Image:      cropped,
	}, nil
}

// CropToFeature crops img to the bounding box of q.
func CropToFeature(img image.Image, q geometry.Quadrilateral) (image.Image, error) {
	out, err := imaging.Crop(img, q.Bounds())
	if err != nil {
		return nil, fmt.Errorf("failed to crop to feature: %w", err)
	}
	return out, nil
}

// Unskew maps q, given in img's coordinates, onto an upright rectangle when
// applyCorrection is set. Otherwise img is returned unchanged.
func Unskew(img image.Image, q geometry.Quadrilateral, applyCorrection bool) (image.Image, error) {
	if !applyCorrection {
		return img, nil
	}
	out, err := imaging.PerspectiveCorrect(img, q)
	if err != nil {
		return nil, fmt.Errorf("perspective correction failed: %w", err)
	}
	return out, nil
}

// Process runs the full pipeline on img: thumbnail, grayscale, blur, detect,
// select, crop, optional perspective correction and optional OCR.
//
// Parameters:
//   - ctx: checked between stages and passed to the text recognizer
//   - img: the full-resolution photograph
//   - opts: pipeline settings; they are validated before any work is done
//
// Returns:
//   - *Result: the crop in thumbnail coordinates together with the selected
//     quad, all candidates, timing and any recognised text
//
// # Errors
//
//   - The Options.Validate error for invalid opts
//   - ErrNoRectangle when no candidate is found
//   - ErrNoRecognizer if text recognition is requested without a recognizer
//   - ctx.Err() once ctx is cancelled
//   - Wrapped scale, crop, correction or recognition failures
func (p *Processor) Process(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	start := time.Now()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := p.logger.With("request_id", requestID)
	log.Debug("preprocess started", "target", fmt.Sprintf("%dx%d", opts.TargetSize.X, opts.TargetSize.Y))

	thumb, err := imaging.Scale(img, opts.TargetSize)
	if err != nil {
		return nil, fmt.Errorf("failed to scale image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed := imaging.Blur(imaging.Grayscale(thumb), opts.BlurRadius)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sel, err := p.DetectAndCrop(processed, thumb, opts.Detection)
	if err != nil {
		log.Info("no crop produced", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := Unskew(sel.Image, sel.LocalQuad(), opts.ApplyCorrection)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RequestID:      requestID,
		Quad:           sel.Quad,
		SelectedIndex:  sel.Index,
		CandidateCount: len(sel.Candidates),
		Candidates:     sel.Candidates,
		ThumbnailSize:  thumb.Bounds().Size(),
		Corrected:      opts.ApplyCorrection,
		Image:          out,
	}

	if opts.RecognizeText {
		if p.recognizer == nil {
			return nil, ErrNoRecognizer
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lang := opts.Language
		if lang == "" {
			lang = DefaultLanguage
		}
		text, err := p.recognizer.RecognizeText(ctx, out, lang)
		if err != nil {
			return nil, fmt.Errorf("text recognition failed: %w", err)
		}
		result.Text = text
	}

	result.Elapsed = time.Since(start)
	log.Info("preprocess complete",
		"candidates", result.CandidateCount,
		"selected", result.SelectedIndex,
		"output", fmt.Sprintf("%dx%d", out.Bounds().Dx(), out.Bounds().Dy()),
		"elapsed", result.Elapsed)

	return result, nil
}
