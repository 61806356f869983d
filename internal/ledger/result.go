package ledger

import "encoding/json"

// DecodeLoose is the named fallback step for raw-text endpoints whose
// payloads are only best-effort JSON (risk analysis, symbol search, time
// series). It reports whether the structured parse succeeded; on failure the
// caller keeps the raw text and decides what to do with it.
func DecodeLoose(raw string, out interface{}) bool {
	return json.Unmarshal([]byte(raw), out) == nil
}
