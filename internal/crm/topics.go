package crm

const (
	TopicOrderCreated     = "crm.order.created"
	TopicProductRestocked = "crm.product.restocked"
)

// Partition key = order_id, supaya event per order tetap berurutan.
func PartitionKey(id string) []byte { return []byte(id) }
