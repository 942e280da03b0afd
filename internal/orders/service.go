package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"shop-backend/internal/errx"
	"shop-backend/internal/redisx"
)

// Store is what the service needs from persistence; *Repo satisfies it.
type Store interface {
	CreateOrderTx(ctx context.Context, method PaymentMethod, cust Customer, items []ItemInput) (View, []DepletedProduct, error)
	GetOrder(ctx context.Context, id int64) (View, error)
	ListOrders(ctx context.Context) ([]View, error)
	UpdateOrderTx(ctx context.Context, id int64, newStatus *Status, newPaid *Paid) (Order, error)
	DeleteOrderTx(ctx context.Context, id int64) ([]ItemInput, error)
}

// Mailer submits one message to the relay. Failures are logged, never retried
// and never unwind committed state.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Publisher is the fire-and-forget event sink.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store       Store
	Mail        Mailer
	Producer    Publisher
	Redis       *redis.Client
	AdminEmail  string
	ServiceName string
}

type CreateInput struct {
	PaymentMethod PaymentMethod `json:"payment_method"`
	Customer      Customer      `json:"customer"`
	Items         []ItemInput   `json:"products"`
}

type ctxKey int

const ctxKeyTrace ctxKey = 0

// WithTrace carries the request id into event envelopes.
func WithTrace(ctx context.Context, trace string) context.Context {
	return context.WithValue(ctx, ctxKeyTrace, trace)
}

func traceFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyTrace).(string)
	return s
}

func (s *Service) Create(ctx context.Context, in CreateInput) (View, error) {
	if !ValidPaymentMethod(in.PaymentMethod) {
		return View{}, errx.Invalidf("invalid payment method %q", in.PaymentMethod)
	}
	if len(in.Items) == 0 {
		return View{}, errx.Invalidf("order must contain at least one product")
	}
	seen := make(map[int64]bool, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return View{}, errx.Invalidf("each product must have a positive product_id and quantity")
		}
		if seen[it.ProductID] {
			return View{}, errx.Invalidf("product %d listed more than once", it.ProductID)
		}
		seen[it.ProductID] = true
	}

	v, depleted, err := s.Store.CreateOrderTx(ctx, in.PaymentMethod, in.Customer, in.Items)
	if err != nil {
		var short *errx.InsufficientStockError
		if errors.As(err, &short) {
			s.sendMail(ctx, s.AdminEmail, subjectInsufficientStock, insufficientStockBody(short.Shortages))
			s.publish(ctx, TopicStockRejected, EventStockRejected, []byte("stock"), 0,
				StockRejectedPayload{Reason: "OUT_OF_STOCK", Shortages: short.Shortages})
		}
		return View{}, err
	}

	if len(depleted) > 0 {
		s.sendMail(ctx, s.AdminEmail, subjectOutOfStock, outOfStockBody(depleted))
		s.publish(ctx, TopicStockDepleted, EventStockDepleted, PartitionKey(v.ID), v.ID,
			StockDepletedPayload{OrderID: v.ID, Products: depleted})
	}
	s.sendMail(ctx, v.Customer.Email, confirmationSubject(v.ID), confirmationBody(v))
	s.publish(ctx, TopicOrderCreated, EventOrderCreated, PartitionKey(v.ID), v.ID, OrderCreatedPayload{
		OrderID:       v.ID,
		PaymentMethod: v.PaymentMethod,
		CustomerEmail: v.Customer.Email,
		Lines:         v.Lines,
		Total:         v.Total,
	})
	s.cacheView(ctx, v)
	return v, nil
}

func (s *Service) Get(ctx context.Context, id int64) (View, error) {
	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrder, id)
		if b, err := s.Redis.Get(ctx, key).Bytes(); err == nil {
			var v View
			if json.Unmarshal(b, &v) == nil {
				return v, nil
			}
		}
	}
	v, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return View{}, err
	}
	s.cacheView(ctx, v)
	return v, nil
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	return s.Store.ListOrders(ctx)
}

func (s *Service) Update(ctx context.Context, id int64, newStatus *Status, newPaid *Paid) (Order, error) {
	o, err := s.Store.UpdateOrderTx(ctx, id, newStatus, newPaid)
	if err != nil {
		return Order{}, err
	}
	s.publish(ctx, TopicOrderUpdated, EventOrderUpdated, PartitionKey(id), id,
		OrderUpdatedPayload{OrderID: id, Status: o.Status, Paid: o.Paid})
	s.dropCache(ctx, id)
	return o, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	restored, err := s.Store.DeleteOrderTx(ctx, id)
	if err != nil {
		return err
	}
	s.publish(ctx, TopicOrderDeleted, EventOrderDeleted, PartitionKey(id), id,
		OrderDeletedPayload{OrderID: id, Restored: restored})
	s.dropCache(ctx, id)
	return nil
}

func (s *Service) sendMail(ctx context.Context, to, subject, body string) {
	if s.Mail == nil || to == "" {
		return
	}
	if err := s.Mail.Send(ctx, to, subject, body); err != nil {
		log.Printf("mail to %s (%s): %v", to, subject, err)
	}
}

func (s *Service) publish(ctx context.Context, topic, eventType string, key []byte, orderID int64, payload any) {
	if s.Producer == nil {
		return
	}
	ev := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     s.ServiceName,
		TraceID:      traceFrom(ctx),
	}
	if orderID != 0 {
		ev.CorrelationID = fmt.Sprintf("%d", orderID)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("marshal %s payload: %v", eventType, err)
		return
	}
	ev.Payload = b
	value, err := json.Marshal(ev)
	if err != nil {
		log.Printf("marshal %s envelope: %v", eventType, err)
		return
	}
	s.Producer.Publish(topic, key, value,
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) cacheView(ctx context.Context, v View) {
	if s.Redis == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrder, v.ID)
	_ = s.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
}

func (s *Service) dropCache(ctx context.Context, id int64) {
	if s.Redis == nil {
		return
	}
	_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrder, id)).Err()
}
