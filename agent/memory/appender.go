package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	logx "github.com/corvid-labs/atlas/pkg/logger"
)

const defaultQueueDepth = 32

// Appender decouples turn persistence from the response path. Each
// conversation gets its own serialized queue, and the queue goroutine
// assigns the sequence number right before writing: two concurrent
// requests on one conversation then get distinct seqs instead of racing
// NextSeq. A full queue drops the turn: loss on overload is acceptable,
// a duplicate is not, and the store's idempotent Append covers retries.
type Appender struct {
	store        contractx.MemoryStore
	writeTimeout time.Duration
	log          zerolog.Logger

	mu     sync.Mutex
	queues map[string]chan contractx.Turn
	closed bool
	wg     sync.WaitGroup
}

func NewAppender(store contractx.MemoryStore, writeTimeout time.Duration) *Appender {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Appender{
		store:        store,
		writeTimeout: writeTimeout,
		log:          logx.Component("memory"),
		queues:       make(map[string]chan contractx.Turn),
	}
}

// Enqueue hands a turn to the conversation's queue and returns
// immediately. The turn's Seq is ignored; the queue assigns it.
func (a *Appender) Enqueue(turn contractx.Turn) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	q, ok := a.queues[turn.ConversationID]
	if !ok {
		q = make(chan contractx.Turn, defaultQueueDepth)
		a.queues[turn.ConversationID] = q
		a.wg.Add(1)
		go a.drain(q)
	}
	a.mu.Unlock()

	select {
	case q <- turn:
	default:
		a.log.Warn().
			Str("conversation_id", turn.ConversationID).
			Msg("memory queue full, turn dropped")
	}
}

func (a *Appender) drain(q <-chan contractx.Turn) {
	defer a.wg.Done()
	for turn := range q {
		a.persist(turn)
	}
}

func (a *Appender) persist(turn contractx.Turn) {
	ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
	defer cancel()

	seq, err := a.store.NextSeq(ctx, turn.ConversationID)
	if err != nil {
		a.log.Warn().
			Err(err).
			Str("conversation_id", turn.ConversationID).
			Msg("sequence read failed, turn dropped")
		return
	}
	turn.Seq = seq

	if err := a.store.Append(ctx, turn); err != nil {
		a.log.Error().
			Err(err).
			Str("conversation_id", turn.ConversationID).
			Int64("seq", turn.Seq).
			Msg("turn append failed")
	}
}

// Close stops accepting turns and waits for queued writes to finish.
func (a *Appender) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	for _, q := range a.queues {
		close(q)
	}
	a.mu.Unlock()
	a.wg.Wait()
}
