// Package checkpoint implements the graph serialization contract (spec.md
// §4.H): a reference-free Record capturing every thought, edge, root, and
// config, plus the from_record restore algorithm. Grounded on the teacher's
// internal/storage/copy.go (deep-copy-then-reattach shape) generalized from
// a single in-process clone to a portable, decoder-independent record.
package checkpoint

import (
	"sort"

	"graphreason/internal/config"
	"graphreason/internal/events"
	"graphreason/internal/graph"
	"graphreason/internal/thought"
)

// Record is the portable representation returned by ToRecord and consumed
// by FromRecord, per spec.md §4.H.
type Record struct {
	Thoughts map[string]thought.Record `json:"thoughts" yaml:"thoughts"`
	Edges    []thought.EdgeRecord      `json:"edges" yaml:"edges"`
	Roots    []string                  `json:"roots" yaml:"roots"`
	Config   config.GraphConfig        `json:"config" yaml:"config"`
	Metadata map[string]any            `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ToRecord captures g's full state into a reference-free Record.
func ToRecord[T any](g *graph.Graph[T]) Record {
	thoughts := g.Thoughts()
	rec := Record{
		Thoughts: make(map[string]thought.Record, len(thoughts)),
		Roots:    g.Roots(),
		Config:   *g.Config(),
		Metadata: make(map[string]any),
	}
	for _, th := range thoughts {
		rec.Thoughts[th.ID] = th.ToRecord()
	}
	for _, e := range g.Edges() {
		rec.Edges = append(rec.Edges, e.ToRecord())
	}
	return rec
}

// FromRecord rebuilds a Graph from rec, implementing spec.md §4.H's
// four-step restore algorithm: build config, install thoughts with their
// full field set, install edges with cycle-checking disabled (dropping
// unknown endpoints silently, then restoring allow_cycles), restore roots
// in order.
func FromRecord[T any](rec Record) (*graph.Graph[T], error) {
	cfg := rec.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	allowCycles := cfg.AllowCycles
	cfg.AllowCycles = true
	g := graph.New[T](&cfg, events.NewEmitter())

	// Install thoughts in a deterministic order so restore is reproducible
	// across runs even though map iteration order is not.
	ids := make([]string, 0, len(rec.Thoughts))
	for id := range rec.Thoughts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		th, err := thought.FromRecord[T](rec.Thoughts[id])
		if err != nil {
			return nil, err
		}
		if err := g.InstallThought(th); err != nil {
			return nil, err
		}
	}

	for _, er := range rec.Edges {
		g.InstallEdge(thought.FromEdgeRecord(er))
	}

	g.SetAllowCycles(allowCycles)
	g.SetRoots(rec.Roots)

	return g, nil
}
