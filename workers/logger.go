package workers

import (
	"inmo_scrooper/logging"
	"inmo_scrooper/models"
)

// NotifyFunc receives the listings a saved search had not reported before.
type NotifyFunc func(search string, listings []models.PositionedListing)

// LogNotifier writes one line per new listing (default)
var LogNotifier NotifyFunc = func(search string, listings []models.PositionedListing) {
	for _, l := range listings {
		url := ""
		if l.URL != nil {
			url = *l.URL
		}
		logging.Infof("watcher", "[%s] new: %s | %s | %s %s", search, l.SafeTitle(), l.PriceText(), l.LocationText(), url)
	}
}
