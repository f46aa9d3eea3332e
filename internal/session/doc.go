// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversational turn lifecycle.
//
// A Session moves between two states: Idle, when it will accept a new
// query, and AwaitingResponse, while a query is in flight. Submitting
// a query appends a user turn, calls the backend, highlights the
// returned evidence with the query's terms, streams the answer, and
// commits an assistant turn. Failures commit a clearly marked error
// turn instead and leave the evidence panel untouched.
//
// The session is the single writer of its own history and evidence.
// Presentation layers observe changes through registered callbacks
// rather than polling.
package session
