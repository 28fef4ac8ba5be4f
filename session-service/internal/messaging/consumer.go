package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	sharedMessaging "solaris-server/shared/messaging"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// JudgmentResultHandler применяет готовый вердикт оракула к сессии.
type JudgmentResultHandler interface {
	ApplyJudgment(ctx context.Context, payload sharedMessaging.JudgmentResultPayload) error
}

// ResultProcessor разбирает сообщения очереди internal_updates и передает
// их обработчику. Отделен от amqp-цикла, чтобы тестироваться без брокера.
type ResultProcessor struct {
	handler JudgmentResultHandler
	logger  *zap.Logger
}

func NewResultProcessor(handler JudgmentResultHandler, logger *zap.Logger) *ResultProcessor {
	return &ResultProcessor{
		handler: handler,
		logger:  logger.Named("ResultProcessor"),
	}
}

// Process обрабатывает тело одного сообщения. Возвращенная ошибка означает,
// что сообщение не может быть применено и повтор не поможет.
func (p *ResultProcessor) Process(ctx context.Context, body []byte) error {
	var payload sharedMessaging.JudgmentResultPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("malformed judgment result: %w", err)
	}
	if err := p.handler.ApplyJudgment(ctx, payload); err != nil {
		return fmt.Errorf("failed to apply judgment result (task %s): %w", payload.TaskID, err)
	}
	return nil
}

// JudgmentResultConsumer слушает очередь internal_updates с результатами
// оракула. Доставка at-least-once: подтверждение ручное, идемпотентность
// применения обеспечивает обработчик (детерминированный ID события вердикта).
type JudgmentResultConsumer struct {
	conn      *amqp.Connection
	queueName string
	processor *ResultProcessor
	logger    *zap.Logger
}

func NewJudgmentResultConsumer(conn *amqp.Connection, queueName string, processor *ResultProcessor, logger *zap.Logger) *JudgmentResultConsumer {
	return &JudgmentResultConsumer{
		conn:      conn,
		queueName: queueName,
		processor: processor,
		logger:    logger.Named("JudgmentResultConsumer"),
	}
}

// StartConsuming объявляет очередь и запускает цикл обработки. Блокируется
// до отмены контекста или закрытия канала доставки.
func (c *JudgmentResultConsumer) StartConsuming(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("не удалось открыть канал: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("не удалось объявить очередь '%s': %w", c.queueName, err)
	}

	// По одному вердикту за раз: применение трогает фазовый автомат,
	// параллельная обработка тут не нужна.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("не удалось установить QoS: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("не удалось подписаться на очередь '%s': %w", c.queueName, err)
	}

	c.logger.Info("Started consuming", zap.String("queue", c.queueName))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer stopped by context")
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("Delivery channel closed")
				return nil
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

func (c *JudgmentResultConsumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	if err := c.processor.Process(ctx, delivery.Body); err != nil {
		// Мусор и невалидные вердикты не должны крутиться в очереди вечно:
		// отбрасываем без requeue, повтор им не поможет.
		c.logger.Error("Dropping judgment result message",
			zap.Error(err),
			zap.ByteString("body", delivery.Body))
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}
	if err := delivery.Ack(false); err != nil {
		c.logger.Error("Failed to ack message", zap.Error(err))
	}
}
