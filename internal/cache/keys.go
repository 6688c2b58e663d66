package cache

import (
	"strconv"
	"strings"
)

// View keys invalidated after an order changes.
const (
	ViewAdminOrders        = "admin:orders"
	ViewAdminPendingCounts = "admin:pending_counts"
)

func UserOrdersKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10) + ":orders"
}

// Key builds a cache entry key under a view key. Invalidating the view
// removes every entry built from it.
func Key(view string, parts ...string) string {
	if len(parts) == 0 {
		return view
	}
	return view + ":" + strings.Join(parts, ":")
}

// viewLabel keeps metric cardinality bounded for per-user keys.
func viewLabel(key string) string {
	switch {
	case strings.HasPrefix(key, ViewAdminPendingCounts):
		return "admin_pending_counts"
	case strings.HasPrefix(key, ViewAdminOrders):
		return "admin_orders"
	case strings.HasPrefix(key, "user:"):
		return "user_orders"
	default:
		return "other"
	}
}
