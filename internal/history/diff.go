package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Chunk is one inserted or removed run of text.
type Chunk struct {
	Type    string `json:"type"` // "added" or "removed"
	Content string `json:"content"`
}

// Diff compares the rendered text of two dispatches.
type Diff struct {
	BaseID string  `json:"base_id"`
	HeadID string  `json:"head_id"`
	Equal  bool    `json:"equal"`
	Chunks []Chunk `json:"chunks"`
	// Patch is the unified patch text turning base into head.
	Patch string `json:"patch,omitempty"`
}

// Diff loads both records and diffs base.Text against head.Text.
func (s *Store) Diff(ctx context.Context, baseID, headID string) (Diff, error) {
	base, err := s.Get(ctx, baseID)
	if err != nil {
		return Diff{}, fmt.Errorf("load base: %w", err)
	}
	head, err := s.Get(ctx, headID)
	if err != nil {
		return Diff{}, fmt.Errorf("load head: %w", err)
	}
	d := DiffText(base.Text, head.Text)
	d.BaseID = baseID
	d.HeadID = headID
	return d, nil
}

// DiffText diffs two strings with semantic cleanup. Whitespace-only chunks
// are dropped from Chunks but kept in Patch.
func DiffText(base, head string) Diff {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(base, head, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	d := Diff{Equal: base == head, Chunks: make([]Chunk, 0)}
	for _, df := range diffs {
		var typ string
		switch df.Type {
		case diffmatchpatch.DiffInsert:
			typ = "added"
		case diffmatchpatch.DiffDelete:
			typ = "removed"
		case diffmatchpatch.DiffEqual:
			continue
		}
		if strings.TrimSpace(df.Text) == "" {
			continue
		}
		d.Chunks = append(d.Chunks, Chunk{Type: typ, Content: df.Text})
	}
	if !d.Equal {
		d.Patch = dmp.PatchToText(dmp.PatchMake(base, diffs))
	}
	return d
}
