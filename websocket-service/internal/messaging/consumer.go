package messaging

import (
	"encoding/json"
	"fmt"

	sharedMessaging "solaris-server/shared/messaging"
	"solaris-server/websocket-service/internal/handler"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Consumer получает сообщения push-ленты из RabbitMQ и рассылает их
// подписчикам соответствующей сессии.
type Consumer struct {
	conn        *amqp.Connection
	manager     *handler.ConnectionManager
	queueName   string
	stopChannel chan struct{}
	logger      zerolog.Logger
}

// NewConsumer создает нового консьюмера RabbitMQ.
func NewConsumer(conn *amqp.Connection, manager *handler.ConnectionManager, queueName string, logger zerolog.Logger) (*Consumer, error) {
	return &Consumer{
		conn:        conn,
		manager:     manager,
		queueName:   queueName,
		stopChannel: make(chan struct{}),
		logger:      logger.With().Str("component", "Consumer").Logger(),
	}, nil
}

// StartConsuming начинает прослушивание очереди push-ленты.
// Эта функция блокирующая, поэтому ее следует запускать в отдельной горутине.
func (c *Consumer) StartConsuming() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	defer ch.Close()

	// Объявляем очередь на случай, если session-service еще не стартовал.
	// Параметры обязаны совпадать с параметрами паблишера (durable=true).
	q, err := ch.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("не удалось объявить очередь '%s': %w", c.queueName, err)
	}
	c.logger.Info().Str("queue", q.Name).Msg("Очередь push-ленты объявлена/найдена")

	// Обрабатываем по одному сообщению за раз
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("не удалось установить QoS: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"websocket-service-consumer", // consumer tag
		false,                        // auto-ack (false, подтверждаем вручную)
		false,                        // exclusive
		false,                        // no-local
		false,                        // no-wait
		nil,                          // args
	)
	if err != nil {
		return fmt.Errorf("не удалось зарегистрировать консьюмера: %w", err)
	}

	c.logger.Info().Str("queue", q.Name).Msg("Консьюмер запущен, ожидание сообщений ленты")

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				c.logger.Info().Msg("Канал сообщений RabbitMQ закрыт")
				return nil
			}
			c.handleDelivery(d)

		case <-c.stopChannel:
			c.logger.Info().Msg("Получен сигнал остановки консьюмера RabbitMQ")
			return nil
		}
	}
}

func (c *Consumer) handleDelivery(d amqp.Delivery) {
	var update sharedMessaging.ClientSessionUpdate
	if err := json.Unmarshal(d.Body, &update); err != nil {
		// Мусор отбрасываем без requeue, повтор ему не поможет
		c.logger.Error().Err(err).Msg("Ошибка десериализации сообщения ленты. Nack.")
		_ = d.Nack(false, false)
		return
	}
	if update.SessionID == "" {
		c.logger.Error().Str("type", update.Type).Msg("Сообщение ленты без sessionId. Nack.")
		_ = d.Nack(false, false)
		return
	}

	// Рассылаем исходный JSON всем подписчикам сессии. Отсутствие
	// подписчиков - не ошибка: оффлайн-клиент получит состояние
	// при следующей загрузке снапшота, сообщение не перекладывается.
	delivered := c.manager.BroadcastToSession(update.SessionID, d.Body)
	c.logger.Debug().
		Str("sessionID", update.SessionID).
		Str("type", update.Type).
		Int("delivered", delivered).
		Msg("Сообщение ленты разослано")
	_ = d.Ack(false)
}

// Stop останавливает консьюмер.
func (c *Consumer) Stop() {
	c.logger.Info().Msg("Остановка консьюмера RabbitMQ...")
	close(c.stopChannel)
}
