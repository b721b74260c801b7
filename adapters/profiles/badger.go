package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/voicearena/server/domain/entities"
	"github.com/voicearena/server/domain/repositories"
)

const keyPrefix = "profile:"

// BadgerStore persists speaker profiles in an embedded BadgerDB. Records are
// JSON documents keyed by the lowercase speaker name.
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger
}

// Ensure BadgerStore implements the SpeakerProfileStore interface
var _ repositories.SpeakerProfileStore = (*BadgerStore)(nil)

// Options configures the profile store.
type Options struct {
	// Dir is the directory for data files. Required unless InMemory.
	Dir string

	// InMemory runs the store without disk persistence. Useful for tests
	// with a real storage engine.
	InMemory bool
}

// NewBadgerStore opens the profile database.
func NewBadgerStore(opts Options, logger *zap.Logger) (*BadgerStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("profile store directory is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{logger: logger})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

func profileKey(name string) []byte {
	return []byte(keyPrefix + strings.ToLower(strings.TrimSpace(name)))
}

// GetAll returns every enrolled profile.
func (s *BadgerStore) GetAll(ctx context.Context) ([]entities.SpeakerProfile, error) {
	var out []entities.SpeakerProfile
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var profile entities.SpeakerProfile
			if err := json.Unmarshal(val, &profile); err != nil {
				return fmt.Errorf("corrupt profile record: %w", err)
			}
			out = append(out, profile)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns the profile for name, or nil if not enrolled.
func (s *BadgerStore) Get(ctx context.Context, name string) (*entities.SpeakerProfile, error) {
	var profile entities.SpeakerProfile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(name))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(val, &profile)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Save adds the profile, or replaces an existing one with the same name.
func (s *BadgerStore) Save(ctx context.Context, profile entities.SpeakerProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	val, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(profile.Name), val)
	})
}

// Remove deletes the profile for name. Returns false if it did not exist.
func (s *BadgerStore) Remove(ctx context.Context, name string) (bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := profileKey(name)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(key)
	})
	return existed, err
}

// ListNames returns the display names of all enrolled speakers.
func (s *BadgerStore) ListNames(ctx context.Context) ([]string, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, p.Name)
	}
	return names, nil
}

// Close shuts the database down cleanly.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// RunGC reclaims value-log space; call periodically on long-lived stores.
func (s *BadgerStore) RunGC() {
	if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		s.logger.Warn("Profile store GC failed", zap.Error(err))
	}
}

// badgerLogger routes badger output through zap, dropping the chatty levels.
type badgerLogger struct {
	logger *zap.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf("badger: "+f, v...))
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf("badger: "+f, v...))
}

func (l badgerLogger) Infof(string, ...interface{})  {}
func (l badgerLogger) Debugf(string, ...interface{}) {}
