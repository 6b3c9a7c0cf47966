package publish

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/physique/pkg/events"
)

type fakeWriter struct {
	topic    string
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishScoresKeysByUser(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "physique_events")
	created := map[string]*fakeWriter{}
	p.newWriter = func(topic string) MessageWriter {
		w := &fakeWriter{topic: topic}
		created[topic] = w
		return w
	}

	calculated := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		require.NoError(t, p.PublishScores(context.Background(), events.ScoresRecalculated{
			UserID:       "u1",
			OverallScore: 12,
			Scores:       map[string]int{"quads": 40},
			CalculatedAt: calculated,
		}))
	}

	require.Len(t, created, 1, "writers are reused per topic")
	w := created["physique_events"]
	require.Len(t, w.messages, 2)
	require.Equal(t, "u1", string(w.messages[0].Key))
	require.Equal(t, "event_type", w.messages[0].Headers[0].Key)
	require.Equal(t, events.TypeScoresRecalculated, string(w.messages[0].Headers[0].Value))

	var decoded events.ScoresRecalculated
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	require.Equal(t, 40, decoded.Scores["quads"])
	require.True(t, calculated.Equal(decoded.CalculatedAt))

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}
