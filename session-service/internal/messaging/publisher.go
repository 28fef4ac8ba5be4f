package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	sharedMessaging "solaris-server/shared/messaging"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JudgmentTaskPublisher defines the interface for publishing judgment tasks
// to the external GM oracle queue.
type JudgmentTaskPublisher interface {
	PublishJudgmentTask(ctx context.Context, payload sharedMessaging.JudgmentTaskPayload) error
}

// ClientUpdatePublisher defines the interface for publishing push-feed updates
// consumed by the websocket service.
type ClientUpdatePublisher interface {
	PublishClientUpdate(ctx context.Context, payload sharedMessaging.ClientSessionUpdate) error
}

// rabbitMQPublisher implements both publisher interfaces over one queue.
type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
}

// NewRabbitMQJudgmentTaskPublisher создает паблишер очереди задач оракула.
// Очередь объявляется здесь, чтобы система не зависела от порядка запуска
// сервисов; параметры обязаны совпадать с параметрами консьюмера-оракула.
func NewRabbitMQJudgmentTaskPublisher(conn *amqp.Connection, queueName string) (JudgmentTaskPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("judgment task publisher: не удалось открыть канал: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		log.Printf("JudgmentTaskPublisher ERROR: Не удалось объявить очередь '%s': %v", queueName, err)
		ch.Close()
		return nil, fmt.Errorf("judgment task publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	return &rabbitMQPublisher{channel: ch, queueName: queueName}, nil
}

// NewRabbitMQClientUpdatePublisher создает паблишер push-ленты.
func NewRabbitMQClientUpdatePublisher(conn *amqp.Connection, queueName string) (ClientUpdatePublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("client update publisher: не удалось открыть канал: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Printf("ClientUpdatePublisher ERROR: Не удалось объявить очередь '%s': %v", queueName, err)
		ch.Close()
		return nil, fmt.Errorf("client update publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	return &rabbitMQPublisher{channel: ch, queueName: queueName}, nil
}

func (p *rabbitMQPublisher) PublishJudgmentTask(ctx context.Context, payload sharedMessaging.JudgmentTaskPayload) error {
	return p.publishJSON(ctx, payload)
}

func (p *rabbitMQPublisher) PublishClientUpdate(ctx context.Context, payload sharedMessaging.ClientSessionUpdate) error {
	return p.publishJSON(ctx, payload)
}

func (p *rabbitMQPublisher) publishJSON(ctx context.Context, payload interface{}) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel is not initialized")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать сообщение для очереди '%s': %w", p.queueName, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(pubCtx,
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("не удалось опубликовать сообщение в очередь '%s': %w", p.queueName, err)
	}
	return nil
}
