package zipmodel

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var ErrInvalidCoordinate = errors.New("coordinate out of valid range")

// Record is one entry of the searchable postal dataset. Point follows the
// orb convention: index 0 is longitude, index 1 is latitude.
type Record struct {
	Zip   string    `json:"zip"`
	City  string    `json:"city"`
	State string    `json:"state"`
	Point orb.Point `json:"point"`
}

// Seed is a user-supplied anchor location. Identity is the postal code the
// user typed; uniqueness within one request is expected but not enforced.
type Seed struct {
	Zip   string    `json:"zip"`
	Point orb.Point `json:"point"`
}

// ValidatePoint rejects coordinates outside the valid latitude/longitude
// range before they reach any geometry code.
func ValidatePoint(p orb.Point) error {
	if p.Lat() < -90 || p.Lat() > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, p.Lat())
	}
	if p.Lon() < -180 || p.Lon() > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, p.Lon())
	}
	return nil
}
