package records

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// VersionKey stores the highest data migration applied to a scope.
const VersionKey = "records_schema_version"

// Legacy identifiers: the single-game release stored its best time under
// LegacyKey; that game is now the LegacySubject instance.
const (
	LegacyKey     = "best_time_phase"
	LegacySubject = "matter"
)

// Migration is one versioned data step over a scope's KV.
type Migration struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, kv KV) error
}

// DefaultMigrations lists the data migrations every scope goes through.
func DefaultMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "copy legacy phase best time",
			Apply:   CopyIfAbsent(LegacyKey, KeyFor(LegacySubject)),
		},
	}
}

// CopyIfAbsent copies from into to when to has no value and from does.
func CopyIfAbsent(from, to string) func(ctx context.Context, kv KV) error {
	return func(ctx context.Context, kv KV) error {
		if _, ok, err := kv.Get(ctx, to); err != nil || ok {
			return err
		}
		value, ok, err := kv.Get(ctx, from)
		if err != nil || !ok {
			return err
		}
		return kv.Set(ctx, to, value)
	}
}

// Migrate applies, in version order, every migration newer than the scope's
// recorded version, recording each version as it succeeds.
func Migrate(ctx context.Context, kv KV, migrations []Migration) error {
	if kv == nil {
		return ErrUnavailable
	}
	current := 0
	raw, ok, err := kv.Get(ctx, VersionKey)
	if err != nil {
		return fmt.Errorf("read records version: %w", err)
	}
	if ok {
		current, err = strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse records version %q: %w", raw, err)
		}
	}

	ordered := append([]Migration(nil), migrations...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Version < ordered[j].Version
	})
	for _, m := range ordered {
		if m.Version <= current {
			continue
		}
		if err := m.Apply(ctx, kv); err != nil {
			return fmt.Errorf("apply records migration %d (%s): %w", m.Version, m.Name, err)
		}
		if err := kv.Set(ctx, VersionKey, strconv.Itoa(m.Version)); err != nil {
			return fmt.Errorf("record records migration %d: %w", m.Version, err)
		}
		current = m.Version
	}
	return nil
}

// ImportLegacy brings a best time kept by the single-game release on the
// learner's device into the scope. The value is stored under LegacyKey
// once; later imports report false. The LegacySubject record takes it
// when absent or slower, matching what the version 1 migration does for
// a scope that already held the legacy key.
func ImportLegacy(ctx context.Context, kv KV, seconds int) (bool, error) {
	if kv == nil {
		return false, ErrUnavailable
	}
	if seconds < 0 {
		return false, fmt.Errorf("import legacy best time: negative seconds %d", seconds)
	}
	if _, ok, err := kv.Get(ctx, LegacyKey); err != nil || ok {
		return false, err
	}
	if err := kv.Set(ctx, LegacyKey, strconv.Itoa(seconds)); err != nil {
		return false, fmt.Errorf("store legacy best time: %w", err)
	}
	NewBook(kv, KeyFor(LegacySubject)).MaybeUpdate(ctx, seconds)
	return true, nil
}
