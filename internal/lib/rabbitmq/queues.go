package rabbitmq

// Ключи маршрутизации событий биллинга.
const (
	KeyInstallmentsGenerated = "installments.generated"
	KeyInstallmentsOverdue   = "installments.overdue"
	KeyInstallmentsPaid      = "installments.paid"
	KeyObligationsPaid       = "obligations.paid"
)

// Очереди, которые слушают воркеры уведомлений.
const (
	QueueOverdue    = "billing.overdue"
	QueuePayments   = "billing.payments"
	QueueGeneration = "billing.generation"
)

// QueueConfig — очередь и шаблон ключа, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetBillingQueues возвращает очереди, которые слушают воркеры уведомлений.
func GetBillingQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueOverdue, RoutingKey: KeyInstallmentsOverdue},
		{QueueName: QueuePayments, RoutingKey: "*.paid"},
		{QueueName: QueueGeneration, RoutingKey: KeyInstallmentsGenerated},
	}
}
