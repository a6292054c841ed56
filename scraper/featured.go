package scraper

import "inmo_scrooper/models"

var (
	tagKeywords        = []string{"destacad", "premium", "super", "featured"}
	planObjectKeywords = []string{"premium", "super", "destacad", "gold", "platinum"}
	planStringKeywords = []string{"premium", "super", "destacad"}
)

type featuredSignal struct {
	name  string
	fires func(raw models.RawListing) bool
}

// featuredSignals are evaluated in order; any one firing marks the listing as
// featured. Missing a paid listing is worse than flagging an unpaid one.
var featuredSignals = []featuredSignal{
	{"featured", flagSignal("featured")},
	{"is_featured", flagSignal("is_featured")},
	{"highlight", flagSignal("highlight", "highlighted")},
	{"premium", flagSignal("premium")},
	{"promoted", flagSignal("promoted", "is_promoted")},
	{"super", flagSignal("super", "super_destacado")},
	{"tags", tagSignal},
	{"plan", planSignal},
}

func flagSignal(keys ...string) func(models.RawListing) bool {
	return func(raw models.RawListing) bool {
		return pick(raw, keys...) != nil
	}
}

func tagSignal(raw models.RawListing) bool {
	tags, _ := asSlice(pick(raw, "tags", "labels"))
	for _, tag := range tags {
		switch t := tag.(type) {
		case string:
			if containsAny(t, tagKeywords) {
				return true
			}
		case map[string]any:
			if name, ok := asString(t["name"]); ok && containsAny(name, tagKeywords) {
				return true
			}
		}
	}
	return false
}

func planSignal(raw models.RawListing) bool {
	switch p := pick(raw, "plan", "subscription").(type) {
	case map[string]any:
		name, ok := asString(p["name"])
		return ok && containsAny(name, planObjectKeywords)
	case string:
		return containsAny(p, planStringKeywords)
	}
	return false
}

// FeaturedSignals returns the names of the signals that fire for raw.
func FeaturedSignals(raw models.RawListing) []string {
	var fired []string
	for _, s := range featuredSignals {
		if s.fires(raw) {
			fired = append(fired, s.name)
		}
	}
	return fired
}

func isFeatured(raw models.RawListing) bool {
	for _, s := range featuredSignals {
		if s.fires(raw) {
			return true
		}
	}
	return false
}
