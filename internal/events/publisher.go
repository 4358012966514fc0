package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mmeshcher/cartshop/internal/model"
)

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher публикует события в RabbitMQ.
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   channel
}

// NewRabbitPublisher подключается к брокеру и объявляет очередь событий.
func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newPublisher(ch)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel) (*RabbitPublisher, error) {
	if _, err := ch.QueueDeclare(CartPaidQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare %s: %w", CartPaidQueue, err)
	}
	return &RabbitPublisher{ch: ch}, nil
}

// Close закрывает канал и соединение с брокером.
func (p *RabbitPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// PublishCartPaid публикует событие об оплате корзины.
func (p *RabbitPublisher) PublishCartPaid(ctx context.Context, rc model.Receipt) error {
	body, err := json.Marshal(NewCartPaid(rc))
	if err != nil {
		return fmt.Errorf("marshal CartPaid: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",
		CartPaidQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    rc.ID.String(),
			Timestamp:    rc.PaidAt,
			Body:         body,
		},
	)
}

// NopPublisher ничего не публикует. Используется, когда брокер не настроен.
type NopPublisher struct{}

// PublishCartPaid ничего не делает.
func (NopPublisher) PublishCartPaid(context.Context, model.Receipt) error {
	return nil
}

// Close ничего не делает.
func (NopPublisher) Close() error {
	return nil
}
