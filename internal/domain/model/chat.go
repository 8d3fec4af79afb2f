package model

// ChatReply is the backend's answer to a chat message. The two observed
// backend variants report grounding either as retrieved chunks or as plain
// source identifiers, so both slices are optional and may be empty.
type ChatReply struct {
	ChatID   string
	Response string
	Chunks   []RetrievedChunk
	Sources  []string
}

// RetrievedChunk identifies a document chunk the retrieval layer used to
// ground a reply, with its similarity score.
type RetrievedChunk struct {
	ChunkID    string
	DocumentID string
	Score      float64
}
