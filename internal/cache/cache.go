package cache

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sort"

	"github.com/ntentasd/kolam-api/pkg/types"
)

var ErrCacheMiss = errors.New("cache miss")

// MaxLatest caps the readings kept per pond in the latest list.
const MaxLatest = 100

const (
	DriverValkey    = "valkey"
	DriverMemcached = "memcached"
)

// New builds the cache for driver. Valkey takes a node list, Memcached its
// server addresses.
func New(driver string, addrs []string) (Cache, error) {
	switch driver {
	case DriverValkey, "":
		if len(addrs) == 0 {
			addrs = ResolveValkeyAddrs(nil, "")
		}
		return NewValkey(addrs), nil
	case DriverMemcached:
		if len(addrs) == 0 {
			return nil, fmt.Errorf("memcached: no servers configured")
		}
		return NewMemcached(addrs...), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", driver)
	}
}

func LatestKey(pondID string) string {
	return fmt.Sprintf("latest:%s", url.PathEscape(pondID))
}

func ChartsKey(pondID string) string {
	return fmt.Sprintf("charts:%s", url.PathEscape(pondID))
}

// insertNewest adds r to a newest-first list and caps it at limit. A reading
// already in the list by id is replaced.
func insertNewest(list []types.SensorReading, r types.SensorReading, limit int) []types.SensorReading {
	list = slices.DeleteFunc(list, func(e types.SensorReading) bool {
		return r.ID != "" && e.ID == r.ID
	})
	list = append(list, r)
	sort.SliceStable(list, func(i, j int) bool {
		return readingScore(list[i]) > readingScore(list[j])
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}

func readingScore(r types.SensorReading) float64 {
	return float64(r.Time.UnixMilli())
}
