package redis

import (
	"fmt"

	"github.com/kirinyoku/courtbook/internal/domain"
)

const ns = "courtbook:v1"

func KeyCampuses() string {
	return ns + ":catalog:campuses"
}

func KeySports(campusID int64) string {
	return fmt.Sprintf("%s:catalog:campus:%d:sports", ns, campusID)
}

func KeySubmitLock(ownerID, scheduleID int64, date domain.Date) string {
	return fmt.Sprintf("%s:submit:%d:%d:%s", ns, ownerID, scheduleID, date)
}

func KeyIdemConfirm(sessionID, idemKey string) string {
	return fmt.Sprintf("%s:idem:confirm:%s:%s", ns, sessionID, idemKey)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelScopeChanged() string {
	return ns + ":scope:changed"
}
