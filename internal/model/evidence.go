// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Evidence is a retrieved passage returned alongside an answer. Text holds
// the highlighted snippet; Source names where the passage came from, or
// "unknown" when the backend does not say.
type Evidence struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// NewEvidence creates an evidence snippet with an unknown source.
func NewEvidence(text string) Evidence {
	return Evidence{Text: text, Source: "unknown"}
}
