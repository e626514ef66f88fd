// Package progress implements the ProgressSink fan-out the engine calls
// as a task moves through its phases. Sinks cover structured logging
// via zap, an in-process channel for a local caller, and an optional
// Redis publish for a host running the engine out-of-process.
package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Phase names one step of a task's lifecycle.
type Phase string

const (
	PhaseInitializing    Phase = "initializing"
	PhaseLoadingData     Phase = "loading-data"
	PhaseBuildingVars    Phase = "building-variables"
	PhaseSolving         Phase = "solving"
	PhaseOptimizing      Phase = "optimizing"
	PhaseFinalizing      Phase = "finalizing"
)

// Update is one progress report. Percentage is monotonically
// non-decreasing within a task.
type Update struct {
	TaskID     string    `json:"task_id"`
	Phase      Phase     `json:"phase"`
	Percentage int       `json:"percentage"`
	Placed     int       `json:"placed"`
	Total      int       `json:"total"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}

// Sink receives progress updates. Implementations must not block the
// caller for long; the engine calls Publish synchronously from the
// task's own goroutine.
type Sink interface {
	Publish(update Update)
}

// NullSink discards every update. It is the default when a caller
// starts a task without requesting progress notifications.
type NullSink struct{}

// Publish implements Sink.
func (NullSink) Publish(Update) {}

// ChannelSink forwards updates to an in-process channel, used by a
// caller in the same process as the engine that also wants a live
// stream alongside listTasks/getTaskStatus polling. Publish never
// blocks: if the channel is full, the update is dropped and counted.
type ChannelSink struct {
	ch      chan Update
	Dropped int
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelSink{ch: make(chan Update, buffer)}
}

// C returns the channel updates are delivered on.
func (s *ChannelSink) C() <-chan Update { return s.ch }

// Publish implements Sink.
func (s *ChannelSink) Publish(update Update) {
	select {
	case s.ch <- update:
	default:
		s.Dropped++
	}
}

// Close closes the underlying channel. The caller must stop reading
// from C() afterwards.
func (s *ChannelSink) Close() { close(s.ch) }

// LoggerSink writes each update as a structured log line, mirroring the
// host application's job queue logging (pkg/jobs.Queue).
type LoggerSink struct {
	logger *zap.Logger
}

// NewLoggerSink wraps logger. A nil logger is treated as a no-op.
func NewLoggerSink(logger *zap.Logger) *LoggerSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerSink{logger: logger}
}

// Publish implements Sink.
func (s *LoggerSink) Publish(update Update) {
	s.logger.Sugar().Infow("task progress",
		"task_id", update.TaskID,
		"phase", update.Phase,
		"percentage", update.Percentage,
		"placed", update.Placed,
		"total", update.Total,
	)
}

// RedisProgressSink publishes updates to a Redis pub/sub channel so a
// host running multiple engine processes can observe task progress from
// outside the process that owns the task table. Grounded on the host
// application's pkg/cache Redis client construction; this sink reuses
// an already-connected client rather than owning its own connection.
type RedisProgressSink struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisProgressSink builds a sink that publishes to channel using
// client. A nil logger falls back to a no-op logger.
func NewRedisProgressSink(client *redis.Client, channel string, logger *zap.Logger) *RedisProgressSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisProgressSink{client: client, channel: channel, logger: logger}
}

// Publish implements Sink. Publish failures are logged, not returned,
// since a progress sink must never cause a task to fail.
func (s *RedisProgressSink) Publish(update Update) {
	payload, err := json.Marshal(update)
	if err != nil {
		s.logger.Sugar().Errorw("failed to marshal progress update", "task_id", update.TaskID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.logger.Sugar().Warnw("failed to publish progress update", "task_id", update.TaskID, "channel", s.channel, "error", err)
	}
}

// MultiSink fans a single update out to several sinks, used when a task
// is started with both a live channel and Redis/logging observers.
type MultiSink struct {
	Sinks []Sink
}

// Publish implements Sink.
func (m MultiSink) Publish(update Update) {
	for _, s := range m.Sinks {
		if s != nil {
			s.Publish(update)
		}
	}
}
