package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishTimeout  = 10 * time.Second
	publishAttempts = 3
	appID           = "quest-server"
)

// amqpChannel - часть *amqp.Channel, нужная паблишеру.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var _ interfaces.SessionEventPublisher = (*RabbitMQPublisher)(nil)

type RabbitMQPublisher struct {
	channel   amqpChannel
	queueName string
	logger    *zap.Logger
}

// NewSessionEventPublisher открывает канал и объявляет durable-очередь событий прохождения.
func NewSessionEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("session event publisher: не удалось открыть канал: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("session event publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	logger.Info("Session event queue declared", zap.String("queue", queueName))
	return newPublisher(ch, queueName, logger), nil
}

func newPublisher(ch amqpChannel, queueName string, logger *zap.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("SessionEventPublisher"),
	}
}

// PublishSessionEvent сериализует событие в JSON и отправляет его в очередь.
func (p *RabbitMQPublisher) PublishSessionEvent(ctx context.Context, event models.SessionEvent) error {
	log := p.logger.With(
		zap.String("eventType", string(event.Type)),
		zap.String("sessionID", event.SessionID.String()),
	)
	body, err := json.Marshal(event)
	if err != nil {
		log.Error("Failed to marshal session event", zap.Error(err))
		return fmt.Errorf("ошибка сериализации события %s: %w", event.Type, err)
	}
	if err := p.publishMessage(ctx, body, log); err != nil {
		return fmt.Errorf("ошибка публикации события %s для сессии %s: %w", event.Type, event.SessionID, err)
	}
	return nil
}

func (p *RabbitMQPublisher) publishMessage(ctx context.Context, body []byte, log *zap.Logger) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange по умолчанию
			p.queueName, // routing key = имя очереди
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        appID,
			},
		)
		if err == nil {
			log.Debug("Session event published", zap.String("queue", p.queueName), zap.Int("attempt", attempt))
			return nil
		}
		log.Warn("Failed to publish session event", zap.String("queue", p.queueName), zap.Int("attempt", attempt), zap.Error(err))
		if attempt < publishAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("публикация в очередь %s прервана: %w", p.queueName, ctx.Err())
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
	}
	return fmt.Errorf("ошибка публикации в очередь %s после %d попыток: %w", p.queueName, publishAttempts, err)
}

// Close закрывает канал паблишера.
func (p *RabbitMQPublisher) Close() error {
	if p.channel == nil {
		return nil
	}
	return p.channel.Close()
}
