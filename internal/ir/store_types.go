package ir

import "encoding/json"

// NOTE: These are store-layer records, not part of the runtime values.

// Run groups the decompositions performed by one engine session.
type Run struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
	CreatedSeq    int64  `json:"created_seq"` // Logical clock
}

// DeconstructionRecord is one executed decomposition request.
type DeconstructionRecord struct {
	ID          string          `json:"id"` // Content-addressed, see DeconstructionID
	RunID       string          `json:"run_id"`
	Seq         int64           `json:"seq"` // Logical clock
	Pattern     string          `json:"pattern"`
	Type        string          `json:"type"`
	Mode        string          `json:"mode"`     // "declare" or "assign"
	Resolved    []string        `json:"resolved"` // decompositions used, outer to inner
	Bindings    json.RawMessage `json:"bindings"` // canonical JSON array of {name,type,value}
	BindingHash string          `json:"binding_hash"`
}
