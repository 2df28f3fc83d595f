package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boundary-lookup/internal/boundary"
)

// ErrInvalidCoordinates is returned for unparsable or out-of-range input.
var ErrInvalidCoordinates = eris.New("invalid coordinates")

// ValidLatitude reports whether lat is within [-90, 90].
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lng is within [-180, 180].
func ValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

// ValidateLatLng checks a numeric coordinate pair and returns the point.
func ValidateLatLng(lat, lng float64) (boundary.Point, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || !ValidLatitude(lat) || !ValidLongitude(lng) {
		return boundary.Point{}, ErrInvalidCoordinates
	}
	return boundary.LatLng(lat, lng), nil
}

// ParseLatLng parses and validates a textual coordinate pair, latitude
// first.
func ParseLatLng(lat, lng string) (boundary.Point, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return boundary.Point{}, ErrInvalidCoordinates
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return boundary.Point{}, ErrInvalidCoordinates
	}
	return ValidateLatLng(la, ln)
}
