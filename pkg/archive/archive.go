// Package archive stores tree snapshots in a local Pebble database, keyed
// by KSUID so a listing comes back ordered by capture time to the second;
// snapshots taken within the same second list in no particular order.
package archive

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/yggdrasil/pkg/btree"
)

// Snapshot is one archived capture of a tree's contents.
type Snapshot struct {
	Tree      string       `json:"tree"`
	Order     int          `json:"order"`
	TakenAt   time.Time    `json:"taken_at"`
	Pairs     []btree.Pair `json:"pairs"`
	NodeCount int          `json:"node_count"`
}

// Archive is a Pebble-backed snapshot store.
type Archive struct {
	db *pebble.DB
}

// Open opens (or creates) the archive database at path.
func Open(path string) (*Archive, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// Save captures the tree's pairs under a fresh KSUID and returns it.
func (a *Archive) Save(name string, t *btree.Tree) (*ksuid.KSUID, error) {
	pairs, err := t.Pairs()
	if err != nil {
		return nil, fmt.Errorf("failed to read tree %q: %w", name, err)
	}

	snap := Snapshot{
		Tree:      name,
		Order:     t.Order(),
		TakenAt:   time.Now().UTC(),
		Pairs:     pairs,
		NodeCount: t.Nodes(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	id := ksuid.New()
	if err := a.db.Set(id.Bytes(), data, pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}
	return &id, nil
}

// Load returns the snapshot stored under id.
func (a *Archive) Load(id ksuid.KSUID) (*Snapshot, error) {
	data, closer, err := a.db.Get(id.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	defer closer.Close()

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// Restore replays a snapshot's pairs into the tree.
func (a *Archive) Restore(id ksuid.KSUID, t *btree.Tree) error {
	snap, err := a.Load(id)
	if err != nil {
		return err
	}
	for _, p := range snap.Pairs {
		if err := t.Insert(p.Key, p.Value); err != nil {
			return fmt.Errorf("failed to restore key %d: %w", p.Key, err)
		}
	}
	return nil
}

// Delete removes the snapshot stored under id.
func (a *Archive) Delete(id ksuid.KSUID) error {
	return a.db.Delete(id.Bytes(), pebble.Sync)
}

// List returns every snapshot ID in KSUID order, which follows capture
// time to the second.
func (a *Archive) List() ([]ksuid.KSUID, error) {
	iter, err := a.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate archive: %w", err)
	}
	defer iter.Close()

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("corrupt snapshot key: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, iter.Error()
}

// Close closes the archive database.
func (a *Archive) Close() error {
	return a.db.Close()
}
