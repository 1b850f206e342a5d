package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/yourusername/clever-tipster/internal/metrics"
	"github.com/yourusername/clever-tipster/internal/models"
)

// Dropped entry kinds
const (
	DroppedMatch  = "match"
	DroppedEngine = "engine"
)

// DroppedEntry describes a feed entry that could not be decoded
type DroppedEntry struct {
	Kind    string `json:"kind"`
	MatchID string `json:"match_id,omitempty"`
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
}

// Batch is a decoded match batch plus the entries that were dropped
type Batch struct {
	Matches []models.Match
	Dropped []DroppedEntry
}

// wireMatch defers engine decoding so one bad engine entry does not lose the match
type wireMatch struct {
	models.Match
	Engines []json.RawMessage `json:"engines"`
}

type envelope struct {
	Matches []json.RawMessage `json:"matches"`
}

// DecodeBatch decodes a match batch. The payload is either a JSON array of
// matches or an object with a "matches" array. Entries that fail to decode
// are dropped and reported; only an unreadable document is an error.
func DecodeBatch(r io.Reader) (Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to read feed payload: %w", err)
	}

	raw, err := splitEntries(data)
	if err != nil {
		return Batch{}, err
	}

	batch := Batch{Matches: make([]models.Match, 0, len(raw))}
	for i, entry := range raw {
		var wm wireMatch
		if err := json.Unmarshal(entry, &wm); err != nil {
			batch.drop(DroppedEntry{Kind: DroppedMatch, Index: i, Reason: err.Error()})
			continue
		}

		m := wm.Match
		m.Engines = make([]models.EngineOutput, 0, len(wm.Engines))
		for j, rawEngine := range wm.Engines {
			var e models.EngineOutput
			if err := json.Unmarshal(rawEngine, &e); err != nil {
				batch.drop(DroppedEntry{Kind: DroppedEngine, MatchID: m.MatchID, Index: j, Reason: err.Error()})
				continue
			}
			m.Engines = append(m.Engines, e)
		}
		batch.Matches = append(batch.Matches, m)
	}

	return batch, nil
}

func (b *Batch) drop(d DroppedEntry) {
	b.Dropped = append(b.Dropped, d)
	metrics.RecordFeedEntryDropped(d.Kind)
}

func splitEntries(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty feed payload", models.ErrMalformedInput)
	}

	switch trimmed[0] {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
		}
		return entries, nil
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
		}
		return env.Matches, nil
	default:
		return nil, fmt.Errorf("%w: feed payload must be a JSON array or object", models.ErrMalformedInput)
	}
}
