package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyfy/denizen-assets/internal/entity"
)

func TestNewProducerFallsBackToMock(t *testing.T) {
	// nothing listens on port 1
	p := NewProducer([]string{"127.0.0.1:1"}, "asset-resized")
	defer p.Close()

	mock, ok := p.(*MockProducer)
	require.True(t, ok, "expected mock producer, got %T", p)
	assert.Equal(t, "asset-resized", mock.topic)
}

func TestNewProducerWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, "asset-resized")
	defer p.Close()

	_, ok := p.(*MockProducer)
	assert.True(t, ok, "expected mock producer, got %T", p)
}

func TestMockProducerRecordsEvents(t *testing.T) {
	m := NewMockProducer("asset-resized")
	event := entity.ResizeEvent{
		RunID: "run-1",
		Name:  "photo.jpg",
		Outputs: []entity.TierOutput{
			{Tier: "small", Path: "assets-small/photo.jpg", Width: 640, Height: 360},
		},
		Time: time.Now(),
	}

	require.NoError(t, m.Publish(context.Background(), event))
	require.Len(t, m.Events, 1)
	assert.Equal(t, "photo.jpg", m.Events[0].Name)
}

func TestNoopProducer(t *testing.T) {
	p := NewNoopProducer()
	assert.NoError(t, p.Publish(context.Background(), entity.ResizeEvent{Name: "x.jpg"}))
	assert.NoError(t, p.Close())
}
