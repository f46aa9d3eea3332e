// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import "encoding/json"

// =============================================================================
// QUERY TYPES
// =============================================================================

// QueryRequest is the JSON body sent to POST /query.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// QueryResponse is the decoded body of a successful query.
type QueryResponse struct {
	Answer  string     `json:"answer"`
	Results ResultList `json:"results"`
}

// Evidence returns the normalized evidence snippets.
func (r *QueryResponse) Evidence() []string {
	return []string(r.Results)
}

// ResultList normalizes the two shapes the backend emits for "results":
// a flat list of strings, or a list containing one nested list of strings.
// When a nested list is present its contents win.
type ResultList []string

// UnmarshalJSON accepts ["a","b"] as well as [["a","b"]].
func (r *ResultList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw) > 0 {
		var nested []string
		if err := json.Unmarshal(raw[0], &nested); err == nil {
			*r = nested
			return nil
		}
	}

	var flat []string
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	*r = flat
	return nil
}

// =============================================================================
// INGEST TYPES
// =============================================================================

// File is a document handed to the ingestion endpoint.
type File struct {
	Name string
	Data []byte
}

// ingestResponse is the decoded body of a successful upload.
type ingestResponse struct {
	Chunks int `json:"chunks"`
}

// UploadResult reports the outcome of one file's ingestion. Either Chunks
// is set (success) or Err carries the raw response text (failure). Results
// are transient; nothing is persisted.
type UploadResult struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunk_count,omitempty"`
	Err      string `json:"error_message,omitempty"`
}

// Failed returns true if the upload did not succeed.
func (u UploadResult) Failed() bool {
	return u.Err != ""
}
