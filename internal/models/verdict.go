package models

// Safety categories a classifier may assign to a URL.
const (
	CategorySafe          = "safe"
	CategorySuspicious    = "suspicious"
	CategoryMalicious     = "malicious"
	CategoryInappropriate = "inappropriate"
	CategoryUnknown       = "unknown"
)

// SafetyVerdict is the normalized output of the URL safety classifier.
type SafetyVerdict struct {
	// IsSafe reports whether the destination is considered safe to visit.
	IsSafe bool `json:"isSafe"`
	// Flagged reports whether the URL should be marked for review.
	Flagged bool `json:"flagged"`
	// Reason is a free-text explanation for the verdict, if any.
	Reason *string `json:"reason"`
	// Category is one of the Category* constants.
	Category string `json:"category"`
	// Confidence is the classifier's confidence in the verdict, in [0, 1].
	Confidence float64 `json:"confidence"`
}

// ValidCategory reports whether c is one of the known safety categories.
func ValidCategory(c string) bool {
	switch c {
	case CategorySafe, CategorySuspicious, CategoryMalicious, CategoryInappropriate, CategoryUnknown:
		return true
	}
	return false
}
