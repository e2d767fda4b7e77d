package status

import (
	"fmt"

	"github.com/hamed0406/sitenotifier/internal/domain"
)

// Classify maps a probe status code to a site status and, for failures, the
// reason shown in the alert. A code of 0 is the prober's sentinel for a
// timeout or refused connection.
func Classify(code int) (domain.Status, string) {
	switch {
	case code == 0:
		return domain.StatusFailed, "Timed out / Refused Connection"
	case code >= 500:
		return domain.StatusFailed, fmt.Sprintf("reported a server error. Your website may be down. Response Code: %d", code)
	case code != 200:
		return domain.StatusFailed, fmt.Sprintf("returned an unexpected response. Response Code: %d", code)
	}
	return domain.StatusActive, ""
}
