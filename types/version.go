package types

// Version is the canonical project version.
// The CLI, the orchestrator and the wire protocol catalog share this version.
const Version = "0.3.0"

// ProtocolVersion identifies the address catalog and wire layout carried in
// transition notifications. It moves in lockstep with Version.
const ProtocolVersion = "0.3.0"
