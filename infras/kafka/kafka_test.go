package kafka_test

import (
	"innkeep/infras/kafka"
	"testing"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentResult struct {
	BookingID string `json:"booking_id"`
	Outcome   string `json:"outcome"`
}

func TestMessage_ToKafkaMessage(t *testing.T) {
	msg := kafka.Message{Key: "room-1", Value: paymentResult{BookingID: "b-1", Outcome: "captured"}}

	out, err := msg.ToKafkaMessage()
	require.NoError(t, err)

	assert.Equal(t, []byte("room-1"), out.Key)
	assert.JSONEq(t, `{"booking_id":"b-1","outcome":"captured"}`, string(out.Value))
}

func TestMessage_ToKafkaMessageUnsupported(t *testing.T) {
	msg := kafka.Message{Key: "room-1", Value: make(chan int)}

	_, err := msg.ToKafkaMessage()
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	got, err := kafka.Decode[paymentResult](kafkaGo.Message{Value: []byte(`{"booking_id":"b-2","outcome":"failed"}`)})
	require.NoError(t, err)
	assert.Equal(t, paymentResult{BookingID: "b-2", Outcome: "failed"}, got)

	_, err = kafka.Decode[paymentResult](kafkaGo.Message{Value: []byte(`not json`)})
	assert.Error(t, err)
}
