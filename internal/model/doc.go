// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat transcripts and
// retrieval evidence.
//
// A Turn is one message in the conversation, authored by the user or the
// assistant. Turns are append-only: once added to a Conversation they are
// never mutated. Evidence is a retrieved passage returned alongside an
// answer; the evidence set is replaced wholesale on every completed query,
// never merged.
package model
