// internal/batch/processor.go - Batch processing implementation
package batch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"mvtengine/internal/output"
	"mvtengine/internal/tile"
)

// BatchProcessor implements the Processor interface for batch processing operations
type BatchProcessor struct {
	processor tile.Processor
	writer    output.Writer
	reporter  ProgressReporter
	mutex     sync.RWMutex
}

// NewBatchProcessor creates a new batch processor with the specified components
func NewBatchProcessor(processor tile.Processor, writer output.Writer, reporter ProgressReporter) *BatchProcessor {
	return &BatchProcessor{
		processor: processor,
		writer:    writer,
		reporter:  reporter,
	}
}

// Process executes a complete batch processing job
func (bp *BatchProcessor) Process(ctx context.Context, job *Job) error {
	bp.mutex.Lock()
	job.Status = JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	job.Progress.StartTime = now
	bp.mutex.Unlock()

	if bp.reporter != nil {
		bp.reporter.ReportProgress(job)
	}

	workItems, err := bp.generateWorkItems(job.TileRanges, job.Config)
	if err != nil {
		bp.completeJobWithError(job, fmt.Errorf("failed to generate work items: %w", err))
		return err
	}

	bp.mutex.Lock()
	job.Progress.TotalTiles = int64(len(workItems))
	job.Progress.TotalChunks = (len(workItems) + job.Config.ChunkSize - 1) / job.Config.ChunkSize
	bp.mutex.Unlock()

	chunkResults := make([]*ChunkResult, 0, job.Progress.TotalChunks)

	for chunkStart := 0; chunkStart < len(workItems); chunkStart += job.Config.ChunkSize {
		select {
		case <-ctx.Done():
			bp.completeJobWithError(job, ctx.Err())
			return ctx.Err()
		default:
		}

		chunkEnd := chunkStart + job.Config.ChunkSize
		if chunkEnd > len(workItems) {
			chunkEnd = len(workItems)
		}

		chunk := workItems[chunkStart:chunkEnd]
		chunkID := len(chunkResults)

		bp.mutex.Lock()
		job.Progress.CurrentChunk = chunkID + 1
		bp.mutex.Unlock()

		chunkResult, err := bp.ProcessChunk(ctx, chunk)
		if err != nil {
			if job.Config.FailOnError {
				bp.completeJobWithError(job, fmt.Errorf("chunk %d failed: %w", chunkID, err))
				return err
			}
			// Continue with next chunk on error if not failing fast
		}

		chunkResults = append(chunkResults, chunkResult)

		bp.updateJobProgress(job, chunkResult)

		if bp.reporter != nil {
			bp.reporter.ReportChunkComplete(job, chunkResult)
		}
	}

	bp.completeJobSuccessfully(job)

	if bp.reporter != nil {
		bp.reporter.ReportJobComplete(job)
	}

	return nil
}

// ProcessChunk processes a chunk of work items concurrently
func (bp *BatchProcessor) ProcessChunk(ctx context.Context, workItems []*WorkItem) (*ChunkResult, error) {
	start := time.Now()

	workChan := make(chan *WorkItem, len(workItems))
	resultChan := make(chan *WorkResult, len(workItems))

	for _, item := range workItems {
		workChan <- item
	}
	close(workChan)

	var wg sync.WaitGroup
	concurrency := min(len(workItems), 10) // Limit concurrency for chunk processing

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bp.worker(ctx, workChan, resultChan)
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var results []*WorkResult
	var processedTiles []*tile.ProcessedTile
	successCount := 0
	failureCount := 0

	for result := range resultChan {
		results = append(results, result)

		if result.Error != nil {
			failureCount++
		} else {
			successCount++
			if result.Tile != nil {
				processedTiles = append(processedTiles, result.Tile)
			}
		}
	}

	if len(processedTiles) > 0 {
		if err := bp.writer.WriteBatch(processedTiles); err != nil {
			return &ChunkResult{
				ChunkID:      workItems[0].ChunkID,
				Results:      results,
				Duration:     time.Since(start),
				SuccessCount: successCount,
				FailureCount: failureCount,
			}, fmt.Errorf("failed to write batch: %w", err)
		}
	}

	return &ChunkResult{
		ChunkID:      workItems[0].ChunkID,
		Results:      results,
		Duration:     time.Since(start),
		SuccessCount: successCount,
		FailureCount: failureCount,
	}, nil
}

// worker processes individual work items
func (bp *BatchProcessor) worker(ctx context.Context, workChan <-chan *WorkItem, resultChan chan<- *WorkResult) {
	for workItem := range workChan {
		select {
		case <-ctx.Done():
			resultChan <- &WorkResult{
				Item:     workItem,
				Error:    ctx.Err(),
				Duration: 0,
				Attempts: 1,
			}
			return
		default:
		}

		result := bp.processWorkItem(workItem)
		resultChan <- result
	}
}

// processWorkItem decodes a single local tile file, with a short retry
// loop for transient filesystem errors, e.g. a reread against a tile
// store still being written to by another process.
func (bp *BatchProcessor) processWorkItem(workItem *WorkItem) *WorkResult {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= 3; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}

		processedTile, err := bp.processor.Process(workItem.Source)
		if err != nil {
			lastErr = fmt.Errorf("process failed: %w", err)
			continue
		}

		return &WorkResult{
			Item:     workItem,
			Tile:     processedTile,
			Duration: time.Since(start),
			Attempts: attempt + 1,
		}
	}

	return &WorkResult{
		Item:     workItem,
		Error:    lastErr,
		Duration: time.Since(start),
		Attempts: 4,
	}
}

// generateWorkItems creates work items from tile ranges, resolving each
// coordinate to a local file path via the job's PathTemplate.
func (bp *BatchProcessor) generateWorkItems(tileRanges []*tile.TileRange, config *JobConfig) ([]*WorkItem, error) {
	var workItems []*WorkItem
	itemID := 0

	for _, tileRange := range tileRanges {
		for z := tileRange.MinZ; z <= tileRange.MaxZ; z++ {
			for x := tileRange.MinX; x <= tileRange.MaxX; x++ {
				for y := tileRange.MinY; y <= tileRange.MaxY; y++ {
					if err := tile.ValidateCoordinates(z, x, y); err != nil {
						return nil, fmt.Errorf("invalid tile coordinates %d/%d/%d: %w", z, x, y, err)
					}

					coord := tile.NewTileCoordinate(z, x, y)
					source := &tile.SourceTile{
						Coordinate: coord,
						Path:       expandPathTemplate(config.PathTemplate, z, x, y),
					}

					workItem := NewWorkItem(source, 0, itemID)
					workItems = append(workItems, workItem)
					itemID++
				}
			}
		}
	}

	return workItems, nil
}

// expandPathTemplate substitutes {z}/{x}/{y} placeholders in a local
// tile path template.
func expandPathTemplate(template string, z, x, y int) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	)
	return r.Replace(template)
}

// updateJobProgress updates job progress based on chunk results
func (bp *BatchProcessor) updateJobProgress(job *Job, chunkResult *ChunkResult) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	job.Progress.ProcessedTiles += int64(len(chunkResult.Results))
	job.Progress.SuccessTiles += int64(chunkResult.SuccessCount)
	job.Progress.FailedTiles += int64(chunkResult.FailureCount)
	job.Progress.UpdateThroughput()

	estimatedEnd := job.Progress.EstimateCompletion()
	job.Progress.EstimatedEnd = &estimatedEnd
}

// completeJobSuccessfully marks the job as completed
func (bp *BatchProcessor) completeJobSuccessfully(job *Job) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	job.Status = JobStatusCompleted
	now := time.Now()
	job.CompletedAt = &now
}

// completeJobWithError marks the job as failed
func (bp *BatchProcessor) completeJobWithError(job *Job, err error) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	job.Status = JobStatusFailed
	job.Error = err
	now := time.Now()
	job.CompletedAt = &now

	if bp.reporter != nil {
		bp.reporter.ReportJobFailed(job, err)
	}
}

// min returns the minimum of two integers
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
