package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Regions tried in order when a number carries no country prefix.
var supportedRegions = []string{
	"US",
	"IL",
}

// NormalizePhone converts a messy phone string to E.164, or returns ""
// when the input cannot be parsed as a number. An input that already
// carries a country prefix is taken at face value as long as it is a
// possible number for its country; per-region validity rules only apply
// when the region had to be guessed.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	if strings.HasPrefix(phone, "+") {
		parsed, err := phonenumbers.Parse(phone, "ZZ")
		if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
			return ""
		}
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil {
			continue
		}
		if phonenumbers.IsValidNumberForRegion(parsed, region) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}
