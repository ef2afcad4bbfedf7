// Package extract turns raw congestion-map HTML into readings.
//
// The page renders one block per building floor, each embedding the pins for
// that floor's map. Pins are only meaningful relative to their enclosing
// floor, so extraction runs in two scoped passes: floor blocks over the
// document, then pins within each block's subtree. A flat single-pass scan
// would mis-attribute pins as soon as a second floor appears.
package extract

import (
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/result"
)

var (
	// ErrNoContent is returned for empty or blank input.
	ErrNoContent = errors.New("no content")
	// ErrNoData is returned when non-empty input yields zero readings. It is
	// the main signal that the upstream markup changed shape.
	ErrNoData = errors.New("no data found")
)

// Selectors for the page's structural convention. The markup is not assumed
// to be a valid document, only to keep this shape stable.
const (
	floorSelector     = "div.map-floor"
	floorAttr         = "data-floor"
	floorNameSelector = ".floor-name"
	pinSelector       = "span.map-pin"
	pinStatusAttr     = "data-status"
	pinLabelSelector  = ".pin-label"
)

var statusClassRe = regexp.MustCompile(`(?:^|\s)status-(\S+)`)

// timestampRe matches the timestamp prefix of archived page filenames. It
// must stay in lockstep with archive.PageFileName.
var timestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}`)

// Readings extracts every (floor, pin) pair from html, tagging each reading
// with timestamp. At least one reading must be found.
func Readings(html, timestamp string) result.Result[[]*models.Reading] {
	if strings.TrimSpace(html) == "" {
		return result.Err[[]*models.Reading](ErrNoContent)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return result.Err[[]*models.Reading](err)
	}

	var readings []*models.Reading
	doc.Find(floorSelector).Each(func(_ int, block *goquery.Selection) {
		floor := floorID(block)
		if floor == "" {
			return
		}
		// Pins are searched inside this block's subtree only.
		block.Find(pinSelector).Each(func(_ int, pin *goquery.Selection) {
			status := pinStatus(pin)
			location := pinLabel(pin)
			if status == "" || location == "" {
				return
			}
			readings = append(readings, &models.Reading{
				Timestamp: timestamp,
				Floor:     floor,
				Location:  location,
				Status:    status,
			})
		})
	})

	if len(readings) == 0 {
		return result.Err[[]*models.Reading](ErrNoData)
	}
	return result.Ok(readings)
}

// TimestampFromName pulls the fetch timestamp out of an archived page
// filename, e.g. "2025-11-06_11-20-02_PageContent_Code-200.html".
func TimestampFromName(name string) (string, bool) {
	match := timestampRe.FindString(name)
	return match, match != ""
}

func floorID(block *goquery.Selection) string {
	if id, ok := block.Attr(floorAttr); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	return strings.TrimSpace(block.Find(floorNameSelector).First().Text())
}

func pinStatus(pin *goquery.Selection) string {
	if status, ok := pin.Attr(pinStatusAttr); ok && strings.TrimSpace(status) != "" {
		return strings.TrimSpace(status)
	}
	if class, ok := pin.Attr("class"); ok {
		if m := statusClassRe.FindStringSubmatch(class); m != nil {
			return m[1]
		}
	}
	return ""
}

func pinLabel(pin *goquery.Selection) string {
	if label := strings.TrimSpace(pin.Find(pinLabelSelector).First().Text()); label != "" {
		return label
	}
	title, _ := pin.Attr("title")
	return strings.TrimSpace(title)
}
