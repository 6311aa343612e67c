//go:build gocv

package detection

// New returns the detector compiled into this build: the OpenCV backend.
func New() Detector {
	return NewOpenCVDetector()
}
