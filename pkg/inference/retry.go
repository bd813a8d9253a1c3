package inference

import "strings"

// transientMarkers are the textual indicators of a failure worth
// retrying: timeouts, rate limits, server errors, and network trouble.
var transientMarkers = []string{
	"timeout",
	"timed out",
	"rate limit",
	"429",
	"500",
	"502",
	"503",
	"504",
	"connection",
	"network",
	"temporarily unavailable",
}

// Transient is the default retry classifier. It matches the error text
// against known transient-failure markers. Callers that want tighter
// classification can supply their own func(error) bool to the Gateway.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
