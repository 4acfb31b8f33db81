package mq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ColdVault/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeTasks = "retrieval.exchange"
	ExchangeRetry = "retrieval.retry.exchange"
	ExchangeDLQ   = "retrieval.dlq.exchange"

	QueueTasks = "retrieval.queue"
	QueueRetry = "retrieval.retry.queue"
	QueueDLQ   = "retrieval.dlq.queue"

	RoutingTask  = "retrieval"
	RoutingRetry = "retrieval.retry"
	RoutingDLQ   = "retrieval.dlq"
)

type Client struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	publishMu sync.Mutex
}

var publisherMu sync.Mutex
var publisher *Client

func Dial() (*Client, error) {
	conn, err := amqp.Dial(config.AppConfig.RabbitMQURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{Conn: conn, Channel: ch}, nil
}

// GetPublisher returns a shared publishing client, redialing when the
// previous connection died.
func GetPublisher() (*Client, error) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	if publisher != nil {
		if !publisher.Conn.IsClosed() && !publisher.Channel.IsClosed() {
			return publisher, nil
		}
		publisher.Close()
		publisher = nil
	}
	client, err := Dial()
	if err != nil {
		return nil, err
	}
	if err := client.DeclareTopology(); err != nil {
		client.Close()
		return nil, err
	}
	publisher = client
	return publisher, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

// DeclareTopology sets up the retrieval task, retry and dead-letter
// exchanges. The retry queue dead-letters back into the task exchange so
// delayed messages re-enter the main queue.
func (c *Client) DeclareTopology() error {
	exchanges := []string{ExchangeTasks, ExchangeRetry, ExchangeDLQ}
	for _, ex := range exchanges {
		if err := c.Channel.ExchangeDeclare(ex, "direct", true, false, false, false, nil); err != nil {
			return err
		}
	}
	if _, err := c.Channel.QueueDeclare(QueueTasks, true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := c.Channel.QueueDeclare(QueueRetry, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    ExchangeTasks,
		"x-dead-letter-routing-key": RoutingTask,
	}); err != nil {
		return err
	}
	if _, err := c.Channel.QueueDeclare(QueueDLQ, true, false, false, false, nil); err != nil {
		return err
	}
	bindings := []struct {
		queue, key, exchange string
	}{
		{QueueTasks, RoutingTask, ExchangeTasks},
		{QueueRetry, RoutingRetry, ExchangeRetry},
		{QueueDLQ, RoutingDLQ, ExchangeDLQ},
	}
	for _, b := range bindings {
		if err := c.Channel.QueueBind(b.queue, b.key, b.exchange, false, nil); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) PublishTask(ctx context.Context, body []byte) error {
	return c.publish(ctx, ExchangeTasks, RoutingTask, body, "")
}

// PublishRetry parks a message on the retry queue for the given delay.
func (c *Client) PublishRetry(ctx context.Context, body []byte, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	expiration := fmt.Sprintf("%d", delay.Milliseconds())
	return c.publish(ctx, ExchangeRetry, RoutingRetry, body, expiration)
}

func (c *Client) PublishDLQ(ctx context.Context, body []byte) error {
	return c.publish(ctx, ExchangeDLQ, RoutingDLQ, body, "")
}

// Consume starts delivering from the task queue with the given prefetch.
func (c *Client) Consume(prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.Channel.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.Channel.Consume(QueueTasks, "", false, false, false, false, nil)
}

func (c *Client) publish(ctx context.Context, exchange, key string, body []byte, expiration string) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}
	if expiration != "" {
		msg.Expiration = expiration
	}
	return c.Channel.PublishWithContext(
		ctx,
		exchange,
		key,
		false,
		false,
		msg,
	)
}
