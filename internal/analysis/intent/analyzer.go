package intent

import "strings"

// Label names a kind of user intent the conversation reacts to.
type Label string

const (
	Booking Label = "booking"
	Confirm Label = "confirm"
)

// "book" sits in both buckets: it starts a booking and also confirms one.
var keywordBuckets = map[Label][]string{
	Booking: {"book", "meeting", "schedule"},
	Confirm: {"yes", "confirm", "okay", "book"},
}

// Matches reports whether message carries any keyword of label. Matching is a
// case-insensitive substring test, so "notebook" counts as "book".
func Matches(message string, label Label) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywordBuckets[label] {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SlotIndex returns the first ASCII digit in message. Only one digit is read,
// so "option 10" yields 1.
func SlotIndex(message string) (int, bool) {
	for _, r := range message {
		if r >= '0' && r <= '9' {
			return int(r - '0'), true
		}
	}
	return 0, false
}
