package queue

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

type fakePublisher struct {
	queue string
	msg   amqp.Publishing
}

func (p *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	p.queue = key
	p.msg = msg
	return nil
}

func TestPublishJSON(t *testing.T) {
	p := &fakePublisher{}
	job := domain.GenerationJob{
		ID:         "abc",
		Parameters: domain.GenerationParameters{PopulationSize: 10, EliteCount: 1},
	}

	require.NoError(t, PublishJSON(context.Background(), p, "timetable_queue", job))
	assert.Equal(t, "timetable_queue", p.queue)
	assert.Equal(t, "application/json", p.msg.ContentType)
	assert.Equal(t, amqp.Persistent, p.msg.DeliveryMode)

	var got domain.GenerationJob
	require.NoError(t, json.Unmarshal(p.msg.Body, &got))
	assert.Equal(t, job, got)
}

func TestPublishJSONMarshalError(t *testing.T) {
	p := &fakePublisher{}
	err := PublishJSON(context.Background(), p, "q", make(chan int))
	assert.Error(t, err)
	assert.Empty(t, p.queue)
}

func TestJobStatusKey(t *testing.T) {
	assert.Equal(t, "timetable_job_42", JobStatusKey("42"))
}
