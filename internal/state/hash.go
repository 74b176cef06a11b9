package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ContentHash computes the SHA-256 hash of the canonical JSON encoding of the
// state. The tick deadline (wall-clock derived) and the tick log (which embeds
// prior hashes) are excluded so the hash is reproducible from game inputs
// alone. encoding/json serializes map keys in sorted order, which keeps the
// encoding canonical.
func ContentHash(w *WorldState) string {
	shallow := *w
	shallow.Meta.TickDeadline = 0
	shallow.TickLog = nil

	data, err := json.Marshal(&shallow)
	if err != nil {
		// The tree contains only JSON-encodable values; treat failure as a bug.
		panic("state: content hash marshal: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Clone deep-copies the state via JSON round-trip. Used to snapshot the
// pre-tick state so a cancelled tick can discard partial progress.
func Clone(w *WorldState) (*WorldState, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	var out WorldState
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out.Players == nil {
		out.Players = make(map[string]*Player)
	}
	if out.History.PlayerReputations == nil {
		out.History.PlayerReputations = make(map[string]ReputationRecord)
	}
	return &out, nil
}
