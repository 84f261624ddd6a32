package recompute

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/421news/hreflangd/related"
)

// Snapshot sources.
const (
	SourceRemote   = "remote"
	SourceLocal    = "local"
	SourceComputed = "computed"
)

// Snapshot is one immutable related-posts map together with its encoded
// form. Readers must not modify it.
type Snapshot struct {
	Result      related.Result
	JSON        []byte
	GeneratedAt time.Time
	Source      string
}

// Len returns the number of posts in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Result)
}

func newSnapshot(res related.Result, source string, at time.Time) (*Snapshot, error) {
	body, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return &Snapshot{Result: res, JSON: body, GeneratedAt: at, Source: source}, nil
}

// decodeSnapshot validates a previously published snapshot body.
func decodeSnapshot(body []byte, source string, at time.Time) (*Snapshot, error) {
	var res related.Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding %s snapshot: %w", source, err)
	}
	if res == nil {
		return nil, fmt.Errorf("decoding %s snapshot: not a JSON object", source)
	}
	return newSnapshot(res, source, at)
}
