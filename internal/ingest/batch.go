// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ingest uploads document batches to the backend.
//
// Uploads within a batch run concurrently but are rate limited so a
// large drop of files does not overwhelm the backend's chunking
// pipeline. A failed upload never aborts the rest of the batch.
package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/docchat-tui/internal/backend"
)

// =============================================================================
// TYPES
// =============================================================================

// Uploader is the backend operation a batch drives. *backend.Client
// satisfies it.
type Uploader interface {
	Ingest(ctx context.Context, file backend.File, key string) (backend.UploadResult, error)
}

// Batch uploads a set of files with bounded concurrency.
type Batch struct {
	uploader    Uploader
	limiter     *rate.Limiter
	concurrency int
}

// BatchResult holds the outcome of a batch upload.
type BatchResult struct {
	// ID uniquely identifies the batch for log correlation.
	ID string

	// Results holds one entry per input file, in input order,
	// regardless of upload completion order.
	Results []backend.UploadResult
}

// Failures returns the results that did not produce chunks.
func (r *BatchResult) Failures() []backend.UploadResult {
	var failed []backend.UploadResult
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// TotalChunks sums the chunk counts of successful uploads.
func (r *BatchResult) TotalChunks() int {
	total := 0
	for _, res := range r.Results {
		if !res.Failed() {
			total += res.Chunks
		}
	}
	return total
}

// =============================================================================
// BATCH CONSTRUCTION
// =============================================================================

const (
	// DefaultConcurrency bounds simultaneous uploads per batch.
	DefaultConcurrency = 3

	// DefaultRate bounds upload starts per second across the batch.
	DefaultRate = rate.Limit(2)
)

// NewBatch creates a batch runner with default limits.
func NewBatch(uploader Uploader) *Batch {
	return NewBatchWithLimits(uploader, DefaultConcurrency, DefaultRate)
}

// NewBatchWithLimits creates a batch runner with explicit limits.
func NewBatchWithLimits(uploader Uploader, concurrency int, limit rate.Limit) *Batch {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batch{
		uploader:    uploader,
		limiter:     rate.NewLimiter(limit, 1),
		concurrency: concurrency,
	}
}

// =============================================================================
// EXECUTION
// =============================================================================

// Run uploads all files and collects per-file results.
//
// Context cancellation stops uploads that have not started; files
// skipped this way get a result carrying the cancellation reason.
func (b *Batch) Run(ctx context.Context, files []backend.File, key string) *BatchResult {
	result := &BatchResult{
		ID:      uuid.NewString(),
		Results: make([]backend.UploadResult, len(files)),
	}

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for i, file := range files {
		if err := b.limiter.Wait(ctx); err != nil {
			result.Results[i] = backend.UploadResult{Filename: file.Name, Err: err.Error()}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(i int, file backend.File) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := b.uploader.Ingest(ctx, file, key)
			if err != nil {
				// Transport failures become per-file results so the
				// rest of the batch keeps going.
				res = backend.UploadResult{Filename: file.Name, Err: err.Error()}
			}
			result.Results[i] = res
		}(i, file)
	}

	wg.Wait()
	return result
}
