// Package memory provides an in-memory implementation of the document
// store used for tests, development and single-node classrooms. Committed
// state can be mirrored to a BSON snapshot file and reloaded on start.
package memory

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/store"
)

// Compile-time contract assertion
var _ store.Store = (*Store)(nil)

type state struct {
	players         map[string]*game.Player
	trades          map[string]*game.Trade
	missions        map[string]*game.PlayerMission
	domains         map[string]*game.OuterDomain
	tasks           map[string]*game.Task
	submissions     map[string]*game.Submission
	messages        map[string]*game.Message
	surveys         map[string]*game.Survey
	surveyResponses map[string]*game.SurveyResponse
}

func newState() state {
	return state{
		players:         make(map[string]*game.Player),
		trades:          make(map[string]*game.Trade),
		missions:        make(map[string]*game.PlayerMission),
		domains:         make(map[string]*game.OuterDomain),
		tasks:           make(map[string]*game.Task),
		submissions:     make(map[string]*game.Submission),
		messages:        make(map[string]*game.Message),
		surveys:         make(map[string]*game.Survey),
		surveyResponses: make(map[string]*game.SurveyResponse),
	}
}

// Options configures a memory store
type Options struct {
	// SnapshotFile, when set, is loaded on start and rewritten after every
	// committed transaction that changed something
	SnapshotFile string
	Logger       zerolog.Logger
}

// Store is a transactional in-memory document store. Transactions are
// serialized by one mutex.
type Store struct {
	mu       sync.Mutex
	state    state
	snapshot string
	logger   zerolog.Logger
}

// New creates a memory store, restoring the snapshot file if present
func New(opts Options) (*Store, error) {
	s := &Store{
		state:    newState(),
		snapshot: opts.SnapshotFile,
		logger:   opts.Logger.With().Str("component", "memory_store").Logger(),
	}
	if s.snapshot != "" {
		loaded, ok, err := loadSnapshot(s.snapshot)
		if err != nil {
			return nil, err
		}
		if ok {
			s.state = loaded
			s.logger.Info().
				Str("file", s.snapshot).
				Int("players", len(loaded.players)).
				Msg("Restored store snapshot")
		}
	}
	return s, nil
}

// NewEphemeral creates a memory store without persistence
func NewEphemeral() *Store {
	s, _ := New(Options{Logger: zerolog.Nop()})
	return s
}

// RunInTransaction runs fn against a staged view of the store and commits
// its writes only when fn returns nil
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(&s.state)
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty() {
		return nil
	}
	tx.commit()

	if s.snapshot != "" {
		if err := writeSnapshot(s.snapshot, &s.state); err != nil {
			// committed state stays authoritative; the next commit retries
			s.logger.Error().Err(err).Str("file", s.snapshot).Msg("Failed to write store snapshot")
		}
	}
	return nil
}

// Close flushes the snapshot file
func (s *Store) Close(ctx context.Context) error {
	if s.snapshot == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeSnapshot(s.snapshot, &s.state)
}
