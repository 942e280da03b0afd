package orders

import "strconv"

const (
	TopicOrderCreated  = "shop.order.created"
	TopicOrderUpdated  = "shop.order.updated"
	TopicOrderDeleted  = "shop.order.deleted"
	TopicStockRejected = "shop.stock.rejected"
	TopicStockDepleted = "shop.stock.depleted"
)

// AllTopics is what the orderwatch consumer subscribes to.
var AllTopics = []string{
	TopicOrderCreated,
	TopicOrderUpdated,
	TopicOrderDeleted,
	TopicStockRejected,
	TopicStockDepleted,
}

// Partition key = order id, so events for one order keep their order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
