package orderwatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "shop-backend/internal/kafka"
	"shop-backend/internal/orders"
)

func message(t *testing.T, topic, eventType string, payload any) kafkago.Message {
	t.Helper()
	env := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "shop-api-test",
		Payload:      kafkax.MustMarshal(payload),
	}
	return kafkago.Message{Topic: topic, Value: kafkax.MustMarshal(env)}
}

func TestHandleDispatchesKnownEvents(t *testing.T) {
	svc := &Service{ServiceName: "orderwatch-test"}
	ctx := context.Background()

	cases := []kafkago.Message{
		message(t, orders.TopicOrderCreated, orders.EventOrderCreated, orders.OrderCreatedPayload{
			OrderID: 1, Lines: []orders.Line{{ProductID: 2, Quantity: 1}},
		}),
		message(t, orders.TopicOrderUpdated, orders.EventOrderUpdated, orders.OrderUpdatedPayload{
			OrderID: 1, Status: orders.StatusDelivering, Paid: orders.PaidYes,
		}),
		message(t, orders.TopicOrderDeleted, orders.EventOrderDeleted, orders.OrderDeletedPayload{
			OrderID: 1, Restored: []orders.ItemInput{{ProductID: 2, Quantity: 1}},
		}),
		message(t, orders.TopicStockDepleted, orders.EventStockDepleted, orders.StockDepletedPayload{
			OrderID: 1, Products: []orders.DepletedProduct{{ProductID: 2, Name: "Mouse"}},
		}),
		message(t, orders.TopicStockRejected, orders.EventStockRejected, orders.StockRejectedPayload{
			Reason: "OUT_OF_STOCK",
		}),
	}
	for _, m := range cases {
		assert.NoError(t, svc.Handle(ctx, m), m.Topic)
	}
}

func TestHandlePoisonEnvelopeIsCommitted(t *testing.T) {
	svc := &Service{ServiceName: "orderwatch-test"}
	m := kafkago.Message{Topic: orders.TopicOrderCreated, Value: []byte("not json")}
	assert.NoError(t, svc.Handle(context.Background(), m))
}

func TestHandleBadPayloadSurfaces(t *testing.T) {
	svc := &Service{ServiceName: "orderwatch-test"}
	env := orders.Envelope{
		EventID:   uuid.NewString(),
		EventType: orders.EventOrderUpdated,
		Payload:   []byte(`["not","an","object"]`),
	}
	m := kafkago.Message{Topic: orders.TopicOrderUpdated, Value: kafkax.MustMarshal(env)}
	err := svc.Handle(context.Background(), m)
	require.Error(t, err)
}
