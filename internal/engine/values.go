package engine

import "fmt"

// Persisted user value names. Module-scoped unless noted.
const (
	valScore             = "score"
	valProgression       = "progression"
	valBadge             = "badge"
	valThresholdExceeded = "thresholdexceeded"
	valBestStart         = "beststart"
	valBestFinish        = "bestfinish"
	valBestPenalties     = "bestpenalties"
	valCurrentStart      = "currentstart"
	valCurrentPenalties  = "currentpenalties"

	// ValLastAccess is element-scoped, maintained by the read path.
	ValLastAccess = "lastaccess"
)

// ItemOwnedKey is the element-scoped flag marking an avatar item as owned.
func ItemOwnedKey(theme, slot int) string {
	return fmt.Sprintf("itemowned-%d-%d", theme, slot)
}

// ItemEquippedKey is the element-scoped value naming the theme equipped in a
// slot.
func ItemEquippedKey(slot int) string {
	return fmt.Sprintf("item-equiped-%d", slot)
}
