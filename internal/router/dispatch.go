package router

import (
	"context"
	"sync"

	"github.com/keshon/connect-router/internal/chat"
	"github.com/keshon/connect-router/internal/command"

	"go.uber.org/zap"
)

// CacheEntry is the last message routed in a channel and whether it ran a command.
type CacheEntry struct {
	Message *chat.Message
	Handled bool
}

type lane struct {
	mu   sync.Mutex
	refs int
}

// Dispatcher runs the first allowed candidate and remembers the last message
// per channel for edit handling.
type Dispatcher struct {
	log *zap.Logger

	lanesMu sync.Mutex
	lanes   map[string]*lane

	cacheMu sync.Mutex
	cache   map[string]CacheEntry
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		log:   log,
		lanes: make(map[string]*lane),
		cache: make(map[string]CacheEntry),
	}
}

// Lane serializes routing decisions and cache upkeep for one channel. It is
// released before a selected command runs. The returned func releases it.
func (d *Dispatcher) Lane(channelID string) (release func()) {
	d.lanesMu.Lock()
	l, ok := d.lanes[channelID]
	if !ok {
		l = &lane{}
		d.lanes[channelID] = l
	}
	l.refs++
	d.lanesMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.lanesMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.lanes, channelID)
		}
		d.lanesMu.Unlock()
	}
}

// Lookup returns the cache entry of a channel.
func (d *Dispatcher) Lookup(channelID string) (CacheEntry, bool) {
	d.cacheMu.Lock()
	defer d.cacheMu.Unlock()
	e, ok := d.cache[channelID]
	return e, ok
}

// Record overwrites the cache entry of the message's channel.
func (d *Dispatcher) Record(msg *chat.Message, handled bool) {
	d.cacheMu.Lock()
	d.cache[msg.ChannelID] = CacheEntry{Message: msg, Handled: handled}
	d.cacheMu.Unlock()
}

// Forget drops the cache entry of a channel if it holds the given message.
func (d *Dispatcher) Forget(channelID, messageID string) {
	d.cacheMu.Lock()
	if e, ok := d.cache[channelID]; ok && e.Message.ID == messageID {
		delete(d.cache, channelID)
	}
	d.cacheMu.Unlock()
}

// Select returns the first candidate authorize allows.
func (d *Dispatcher) Select(
	msg *chat.Message,
	candidates []command.Candidate,
	authorize func(command.Candidate) error,
) (command.Candidate, bool) {
	for _, c := range candidates {
		if err := authorize(c); err != nil {
			d.log.Debug("candidate denied",
				zap.String("command", c.Command.Name()),
				zap.String("message", msg.ID),
				zap.Error(err),
			)
			continue
		}
		return c, true
	}
	return command.Candidate{}, false
}

// Invoke runs the selected candidate. Its error is logged and goes no further.
// Callers must not hold the channel lane.
func (d *Dispatcher) Invoke(
	ctx context.Context,
	msg *chat.Message,
	c command.Candidate,
	invoke func(context.Context, command.Candidate) error,
) {
	if err := invoke(ctx, c); err != nil {
		d.log.Error("command returned error",
			zap.String("command", c.Command.Name()),
			zap.String("message", msg.ID),
			zap.String("channel", msg.ChannelID),
			zap.Error(err),
		)
	}
}

// Dispatch selects and invokes in one step. It reports whether a candidate ran.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	msg *chat.Message,
	candidates []command.Candidate,
	authorize func(command.Candidate) error,
	invoke func(context.Context, command.Candidate) error,
) bool {
	c, ok := d.Select(msg, candidates, authorize)
	if !ok {
		return false
	}
	d.Invoke(ctx, msg, c, invoke)
	return true
}
