// Package publish pushes published layout snapshots to Redis so other
// processes can follow a running coordinator.
//
// Every snapshot is encoded with graph.MarshalLayout, sent on a pub/sub
// channel and stored under "<channel>:latest" for late subscribers.
//
// Snapshots are sent from a background goroutine. OnSnapshot only hands the
// snapshot over and returns; if Redis falls behind, snapshots waiting to be
// sent are replaced by newer ones.
package publish

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/worldloom/worldloom/pkg/cache"
	"github.com/worldloom/worldloom/pkg/engine"
	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/graph"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "worldloom:layouts"

const publishTimeout = 5 * time.Second

// RedisPublisher is an engine.Observer that forwards snapshots to Redis.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	logger  *log.Logger

	mu      sync.Mutex // guards closed and the hand-off into pending
	closed  bool
	pending chan *engine.Snapshot // holds at most the newest unsent snapshot
	stop    chan struct{}
	done    chan struct{}
}

// NewRedisPublisher connects to url and verifies the connection.
func NewRedisPublisher(ctx context.Context, url, channel string, logger *log.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis"))
	}
	return NewRedisPublisherFromClient(client, channel, logger), nil
}

// NewRedisPublisherFromClient wraps an existing client.
func NewRedisPublisherFromClient(client redis.UniversalClient, channel string, logger *log.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	p := &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  logger,
		pending: make(chan *engine.Snapshot, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Channel returns the pub/sub channel name.
func (p *RedisPublisher) Channel() string { return p.channel }

// LatestKey returns the key holding the most recent layout.
func (p *RedisPublisher) LatestKey() string { return p.channel + ":latest" }

// OnSnapshot implements engine.Observer. It queues s for the background
// sender and never waits on Redis. An unsent older snapshot is dropped.
func (p *RedisPublisher) OnSnapshot(s *engine.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case old := <-p.pending:
		p.logger.Debug("replaced unsent snapshot", "seq", old.Seq, "by", s.Seq)
	default:
	}
	p.pending <- s
}

func (p *RedisPublisher) run() {
	defer close(p.done)
	for {
		select {
		case s := <-p.pending:
			p.send(s)
		case <-p.stop:
			select {
			case s := <-p.pending:
				p.send(s)
			default:
			}
			return
		}
	}
}

// send publishes s, logging failures.
func (p *RedisPublisher) send(s *engine.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, s); err != nil {
		p.logger.Warn("publish snapshot failed", "seq", s.Seq, "err", err)
	}
}

// Publish encodes s and sends it.
func (p *RedisPublisher) Publish(ctx context.Context, s *engine.Snapshot) error {
	data, err := graph.MarshalLayout(graph.FromSnapshot(s))
	if err != nil {
		return err
	}
	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.LatestKey(), data, 0)
	pipe.Publish(ctx, p.channel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "publish to %s", p.channel)
	}
	p.logger.Debug("published snapshot", "seq", s.Seq, "channel", p.channel, "bytes", len(data))
	return nil
}

// Latest returns the most recently published layout, if any.
func (p *RedisPublisher) Latest(ctx context.Context) (graph.Layout, bool, error) {
	data, err := p.client.Get(ctx, p.LatestKey()).Bytes()
	if err == redis.Nil {
		return graph.Layout{}, false, nil
	}
	if err != nil {
		return graph.Layout{}, false, errors.Wrap(errors.ErrCodeNetwork, err, "read %s", p.LatestKey())
	}
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		return graph.Layout{}, false, err
	}
	return l, true, nil
}

// Close sends the last queued snapshot, stops the sender and closes the
// Redis client.
func (p *RedisPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.stop)
	}
	p.mu.Unlock()
	<-p.done
	return p.client.Close()
}

var _ engine.Observer = (*RedisPublisher)(nil)
