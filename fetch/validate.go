package fetch

import (
	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/result"
)

// Validate accepts only 2xx exchanges. Pure: it inspects the status code and
// nothing else.
func Validate(fr models.FetchResult) result.Result[models.FetchResult] {
	if fr.StatusCode >= 200 && fr.StatusCode < 300 {
		return result.Ok(fr)
	}
	return result.Err[models.FetchResult](ErrStatus{StatusCode: fr.StatusCode})
}
