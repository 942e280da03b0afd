package redisx

import "time"

const (
	// Cached single-product projection: catalog:product:{product_id} -> JSON
	KeyProduct = "catalog:product:%d"

	// Cached single-order projection: orders:order:{order_id} -> JSON
	KeyOrder = "orders:order:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLProductCache = 5 * time.Minute
	TTLOrderCache   = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
