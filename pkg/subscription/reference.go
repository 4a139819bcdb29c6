package subscription

import (
	"fmt"
	"strings"
	"time"
)

// Reference tags are echoed back by the processor in the agreement's
// external_reference field. They correlate a new agreement with the one
// it supersedes during an upgrade.
const upgradeFromMarker = "|from:"

// NewReference builds the tag for a fresh agreement: "<plan>-<unix-ts>".
func NewReference(plan string, now time.Time) string {
	return fmt.Sprintf("%s-%d", plan, now.Unix())
}

// NewUpgradeReference builds the tag for an upgrade agreement:
// "upgrade-<plan>-<unix-ts>|from:<priorID>".
func NewUpgradeReference(plan string, now time.Time, priorID string) string {
	return fmt.Sprintf("upgrade-%s-%d%s%s", plan, now.Unix(), upgradeFromMarker, priorID)
}

// UpgradeFrom extracts the superseded agreement id from a reference tag.
func UpgradeFrom(ref string) (string, bool) {
	_, prior, found := strings.Cut(ref, upgradeFromMarker)
	if !found || prior == "" {
		return "", false
	}
	return prior, true
}
