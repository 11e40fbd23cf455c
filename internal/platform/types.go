// internal/platform/types.go
package platform

import "encoding/json"

// Operation is the long-running job envelope the platform returns for corpus
// mutations. Callers poll until Done; a populated Error means the job failed.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *OperationError `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

// OperationError carries the failure reported by a finished operation.
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Passage is one retrieved context chunk, in the order the platform ranked it.
type Passage struct {
	SourceURI string  `json:"sourceUri"`
	Text      string  `json:"text"`
	Distance  float64 `json:"distance"`
}

// ImportOptions tune how the platform chunks and embeds imported documents.
type ImportOptions struct {
	ChunkSize                     int
	ChunkOverlap                  int
	MaxEmbeddingRequestsPerMinute int
}

// Credentials is the on-disk shape of the platform credentials file.
type Credentials struct {
	APIKey string `json:"api_key"`
}
