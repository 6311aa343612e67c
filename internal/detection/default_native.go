//go:build !gocv

package detection

// New returns the detector compiled into this build: the pure Go backend.
// Build with -tags gocv to use OpenCV instead.
func New() Detector {
	return NewNativeDetector()
}
