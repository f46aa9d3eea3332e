// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the retrieval backend.
//
// The backend exposes two endpoints:
//
//	POST /query  - JSON {"query": ..., "top_k": ...}; returns an answer and
//	               a list of evidence snippets. 60 second ceiling.
//	POST /ingest - multipart field "file" plus a "key" credential header;
//	               returns {"chunks": n}. 120 second ceiling.
//
// Errors are categorized so callers can distinguish transport failures
// (NetworkError territory: the request never completed) from backend
// failures (the request completed but the body was not usable). Neither is
// fatal to a session; both surface to the user and the session returns to
// idle.
package backend
