package parser

import (
	"fmt"
	"strings"

	"github.com/minsoo-dev/libcrowd/models"
)

// Status tokens observed on the congestion map. The set is closed today but
// unrecognized tokens are kept verbatim so upstream markup drift surfaces in
// the data instead of being dropped.
const (
	StatusSmooth    = "원활"
	StatusModerate  = "보통"
	StatusCongested = "혼잡"
)

// ValidateReading ensures the extractor captured the required fields.
func ValidateReading(r *models.Reading) error {
	if r == nil {
		return fmt.Errorf("reading is nil")
	}
	if strings.TrimSpace(r.Timestamp) == "" {
		return fmt.Errorf("reading missing timestamp")
	}
	if strings.TrimSpace(r.Floor) == "" {
		return fmt.Errorf("reading missing floor")
	}
	if strings.TrimSpace(r.Location) == "" {
		return fmt.Errorf("reading missing location for floor %s", r.Floor)
	}
	if strings.TrimSpace(r.Status) == "" {
		return fmt.Errorf("reading missing status for %s/%s", r.Floor, r.Location)
	}
	return nil
}

// NormalizeFloor trims spacing around the floor token.
func NormalizeFloor(floor string) string {
	return strings.TrimSpace(floor)
}

// NormalizeLocation trims spacing from the location label.
func NormalizeLocation(text string) string {
	return strings.TrimSpace(text)
}

// StatusLevel converts a status token to a numeric density scale.
func StatusLevel(status string) int {
	switch strings.TrimSpace(status) {
	case StatusSmooth, "smooth":
		return 1
	case StatusModerate, "moderate":
		return 2
	case StatusCongested, "congested":
		return 3
	default:
		return 0
	}
}
