// Package health derives one overall classification from the snapshot
// store's current contents. It is computed on demand by whoever asks
// (status bar, read API), never maintained incrementally.
package health

import (
	"encoding/json"
	"fmt"

	"github.com/billdonner/server-monitor/internal/store"
)

// State is the overall system health classification.
type State int

const (
	// StateWaiting means no target has completed a poll cycle yet.
	StateWaiting State = iota
	// StateOK means every target has a snapshot and none report errors.
	StateOK
	// StateDegraded means at least one target is unreachable or erroring.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateOK:
		return "ok"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state as its lowercase name so API consumers
// see "ok", not an enum ordinal.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "waiting":
		*s = StateWaiting
	case "ok":
		*s = StateOK
	case "degraded":
		*s = StateDegraded
	default:
		return fmt.Errorf("unknown health state %q", name)
	}
	return nil
}

// Summary is the result of one health evaluation.
type Summary struct {
	State State `json:"state"`

	// Affected lists the targets that are unreachable or erroring, in
	// registration order so output is deterministic.
	Affected []string `json:"affected,omitempty"`

	TargetsTotal   int `json:"targets_total"`
	TargetsHealthy int `json:"targets_healthy"`
	TargetsErrored int `json:"targets_errored"`
}

// Evaluate classifies the store's current contents.
//
// Degraded beats everything: one bad snapshot marks the whole system. With
// no bad snapshots the system is OK only once every registered target has
// published; before that it is still warming up and reports waiting.
func Evaluate(st *store.Store) Summary {
	names := st.Names()
	sum := Summary{TargetsTotal: len(names)}

	published := 0
	for _, name := range names {
		snap, ok := st.Get(name)
		if !ok {
			continue
		}
		published++
		if !snap.Reachable || snap.Error != "" {
			sum.TargetsErrored++
			sum.Affected = append(sum.Affected, name)
		} else {
			sum.TargetsHealthy++
		}
	}

	switch {
	case sum.TargetsErrored > 0:
		sum.State = StateDegraded
	case published == len(names) && published > 0:
		sum.State = StateOK
	default:
		sum.State = StateWaiting
	}
	return sum
}
