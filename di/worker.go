package di

import (
	"innkeep/infras/kafka"
	"innkeep/infras/postgres"
	"innkeep/transport/event"
	"innkeep/transport/scheduler"
)

// Worker is everything the background process runs: the lifecycle sweeps and
// the payment results consumer, plus the connections it must close on exit.
type Worker struct {
	Scheduler *scheduler.Scheduler
	Payments  *event.PaymentConsumer
	Kafka     kafka.Client
	Postgres  *postgres.Connection
}
