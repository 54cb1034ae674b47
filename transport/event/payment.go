package event

import (
	"context"
	"fmt"
	"innkeep/config"
	"innkeep/infras/kafka"
	"innkeep/infras/otel"
	"innkeep/internal/domains/booking/model/dto"
	"innkeep/internal/domains/booking/service"
	"innkeep/shared/constant"
	"innkeep/shared/failure"
	"innkeep/shared/logger"
	"innkeep/shared/validator"

	"github.com/rs/zerolog"
	kafkaGo "github.com/segmentio/kafka-go"
)

// PaymentConsumer turns payment verdicts into booking lifecycle events.
type PaymentConsumer struct {
	kafka   kafka.Client
	booking service.Booking
	cfg     *config.Config
	otel    otel.Otel
	log     zerolog.Logger
}

func NewPaymentConsumer(kafka kafka.Client, booking service.Booking, cfg *config.Config, otel otel.Otel) *PaymentConsumer {
	return &PaymentConsumer{
		kafka:   kafka,
		booking: booking,
		cfg:     cfg,
		otel:    otel,
		log:     logger.Component("payment-consumer"),
	}
}

// Run consumes the payment results topic until ctx is done.
func (c *PaymentConsumer) Run(ctx context.Context) error {
	topic := c.cfg.Kafka.Topics.PaymentResults

	c.log.Info().Str("topic", topic).Str("group", c.cfg.Kafka.ConsumerGroup).Msg("Payment consumer started")

	if err := c.kafka.Consume(ctx, c.cfg.Kafka.ConsumerGroup, topic, c.Handle); err != nil {
		return fmt.Errorf("consuming %s: %w", topic, err)
	}

	return nil
}

// Handle applies one payment result. Records that can never succeed, such as
// an unknown outcome or a booking id that is not a UUID, are logged and
// dropped; anything else is returned so the client retries it.
func (c *PaymentConsumer) Handle(ctx context.Context, msg kafkaGo.Message) (err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".payment.Handle")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	result, err := kafka.Decode[dto.PaymentResult](msg)
	if err != nil {
		c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("Dropping malformed payment result")

		return nil
	}

	event, ok := result.Event()
	if !ok || validator.ValidateVar(result.BookingID, "uuid") != nil {
		c.log.Warn().Str("booking_id", result.BookingID).Str("outcome", result.Outcome).Msg("Dropping unusable payment result")

		return nil
	}

	scope.SetAttributes(map[string]any{
		"booking.id":    result.BookingID,
		"booking.event": string(event),
	})

	booking, err := c.booking.Transition(ctx, result.BookingID, event)
	if err != nil {
		switch failure.GetKind(err) {
		case failure.KindInvalidTransition, failure.KindExpired, failure.KindNotFound:
			c.log.Warn().Err(err).Str("booking_id", result.BookingID).Str("event", string(event)).Msg("Payment result no longer applies")

			return nil
		default:
			return fmt.Errorf("applying %s to booking %s: %w", event, result.BookingID, err)
		}
	}

	c.log.Info().Str("booking_id", booking.ID).Str("status", booking.Status).Msg("Payment result applied")

	return nil
}
