package services

import (
	"encoding/json"
	"time"

	"market/internal/models"
	"market/pkg/rabbitmq"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Routing keys of the events published on rabbitmq.SalesExchange.
const (
	EventSaleCreated = "sale.created"
	EventSaleUpdated = "sale.updated"
	EventSaleDeleted = "sale.deleted"
)

// EventPublisher sends a message body to an exchange under a routing key.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// SaleEvent is the message body of every sale event.
type SaleEvent struct {
	Event      string          `json:"event"`
	SaleID     string          `json:"saleId"`
	ProductID  string          `json:"productId"`
	Quantity   int             `json:"quantity"`
	SaleValue  decimal.Decimal `json:"saleValue"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewSaleEvent builds the event published for sale.
func NewSaleEvent(event string, sale models.Sale, at time.Time) SaleEvent {
	return SaleEvent{
		Event:      event,
		SaleID:     sale.ID,
		ProductID:  sale.ProductID,
		Quantity:   sale.QuantityProduct,
		SaleValue:  sale.SaleValue,
		OccurredAt: at,
	}
}

// publish never fails the caller; broker problems are only logged.
func (s *SaleService) publish(event string, sale models.Sale) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(NewSaleEvent(event, sale, s.now()))
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal sale event")
		return
	}
	if err := s.publisher.Publish(rabbitmq.SalesExchange, event, body); err != nil {
		log.Warn().Err(err).Str("event", event).Str("sale_id", sale.ID).Msg("failed to publish sale event")
		return
	}
	log.Debug().Str("event", event).Str("sale_id", sale.ID).Msg("published sale event")
}
