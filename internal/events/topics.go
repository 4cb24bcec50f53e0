package events

// Topic constants for domain events emitted by the ordering pipeline.
const (
	TopicOrderCreated = "order.created"
	TopicOrderPaid    = "order.paid"
)
