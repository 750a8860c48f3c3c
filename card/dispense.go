package card

import (
	"sort"

	"github.com/stampworks/stampcard/stamp"
)

// SortOffers returns offers ordered ascending by unit rate. The sort is
// stable: equally priced dispensers keep their fetch order. The input is
// not modified.
func SortOffers(offers []stamp.Offer) []stamp.Offer {
	sorted := make([]stamp.Offer, len(offers))
	copy(sorted, offers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RateSats < sorted[j].RateSats
	})
	return sorted
}

// DefaultSelection returns the source of the cheapest offer, or "" for an
// empty list. Callers pass an already sorted list.
func DefaultSelection(sorted []stamp.Offer) string {
	if len(sorted) == 0 {
		return ""
	}
	return sorted[0].Source
}

// containsOffer reports whether source identifies a member of offers.
func containsOffer(offers []stamp.Offer, source string) bool {
	for _, o := range offers {
		if o.Source == source {
			return true
		}
	}
	return false
}
