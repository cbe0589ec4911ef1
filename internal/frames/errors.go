package frames

import "errors"

var (
	// ErrNotFound means the source path does not exist
	ErrNotFound = errors.New("video not found")
	// ErrUnopenable means the path exists but no backend could open it as video
	ErrUnopenable = errors.New("cannot open video file")
)

// Kind classifies a load or analysis error for reporting
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnopenable):
		return "unopenable"
	default:
		return "unexpected"
	}
}
