// Package orderwatch tails the order topics: it invalidates stale cache
// entries across replicas and keeps per-event counters.
package orderwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "shop-backend/internal/kafka"
	"shop-backend/internal/orders"
	"shop-backend/internal/redisx"
)

var eventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shop_order_events_total",
		Help: "Order events consumed, by type",
	},
	[]string{"type"},
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message; commit and move on
		log.Printf("orderwatch: bad envelope on %s: %v", m.Topic, err)
		return nil
	}

	// dedup on event id
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	eventsTotal.WithLabelValues(env.EventType).Inc()

	switch env.EventType {
	case orders.EventOrderUpdated:
		p, err := kafkax.UnwrapPayload[orders.OrderUpdatedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.dropOrderCache(ctx, p.OrderID)
	case orders.EventOrderDeleted:
		p, err := kafkax.UnwrapPayload[orders.OrderDeletedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.dropOrderCache(ctx, p.OrderID)
		// restored quantities changed product rows too
		for _, it := range p.Restored {
			s.dropProductCache(ctx, it.ProductID)
		}
	case orders.EventStockDepleted:
		p, err := kafkax.UnwrapPayload[orders.StockDepletedPayload](env.Payload)
		if err != nil {
			return err
		}
		for _, prod := range p.Products {
			log.Printf("orderwatch: product %d (%s) depleted by order %d", prod.ProductID, prod.Name, p.OrderID)
			s.dropProductCache(ctx, prod.ProductID)
		}
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		for _, l := range p.Lines {
			s.dropProductCache(ctx, l.ProductID)
		}
	case orders.EventStockRejected:
		// accounting only; nothing was committed
	}
	return nil
}

func (s *Service) dropOrderCache(ctx context.Context, id int64) {
	if s.Redis == nil {
		return
	}
	_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrder, id)).Err()
}

func (s *Service) dropProductCache(ctx context.Context, id int64) {
	if s.Redis == nil {
		return
	}
	_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyProduct, id)).Err()
}
