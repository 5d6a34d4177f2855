package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher 只包含用到的 amqp.Channel 方法，测试时可以替换
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishJSON 把 v 序列化后投递到默认交换机上名为 queue 的队列
func PublishJSON(ctx context.Context, p Publisher, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return p.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// DeclareQueue 声明一个持久化的队列，生产者和消费者都会调用
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}
