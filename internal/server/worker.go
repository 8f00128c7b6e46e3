package server

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"time"

	"github.com/cwbudde/stringart/internal/art"
	"github.com/cwbudde/stringart/internal/store"
)

// framePeriod throttles how often the preview frame is re-encoded.
const framePeriod = 250 * time.Millisecond

// fitConfig converts a job configuration into the engine configuration.
func fitConfig(c JobConfig) art.Config {
	return art.Config{
		Size:        c.Size,
		Anchors:     c.Anchors,
		Shape:       art.Shape(c.Shape),
		Mode:        art.Mode(c.Mode),
		Tolerance:   c.Tolerance,
		StartAnchor: c.StartAnchor,
	}
}

// runJob executes a fitting job in the background.
// If checkpointStore is not nil and the job has checkpointInterval > 0,
// periodic checkpoints are saved from inside the sink, which is the loop's
// single serialization point.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	}); err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "ref", job.Config.RefPath)

	cfg := fitConfig(job.Config)
	if err := cfg.Validate(); err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("invalid configuration: %w", err))
		return err
	}

	target, err := art.LoadTarget(job.Config.RefPath, cfg)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	slog.Info("Loaded target image", "job_id", jobID, "size", cfg.Size, "anchors", cfg.Anchors)

	anchors, err := art.Layout(cfg)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	working := art.NewGrid(cfg.Size)
	state := art.State{
		Working:       working,
		PrevLoss:      art.Loss(target, working),
		CurrentAnchor: cfg.StartAnchor,
	}

	jm.UpdateJob(jobID, func(j *Job) {
		j.InitialLoss = state.PrevLoss
		j.Loss = state.PrevLoss
	})

	var trace *store.TraceWriter
	if fs, ok := checkpointStore.(*store.FSStore); ok && fs != nil {
		trace, err = store.NewTraceWriter(fs.BaseDir(), jobID, false)
		if err != nil {
			slog.Warn("Failed to open trace file", "job_id", jobID, "error", err)
			trace = nil
		} else {
			defer trace.Close()
		}
	}

	start := time.Now()

	// Progress broadcast goroutine, throttled to 2 updates per second.
	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, start, progressDone)

	checkpointInterval := time.Duration(job.Config.CheckpointInterval) * time.Second
	lastFrame := time.Time{}
	lastCheckpoint := start

	sink := func(step art.Step) error {
		jm.UpdateJob(jobID, func(j *Job) {
			j.Chords = step.Accepted
			j.Loss = step.Loss
		})

		if trace != nil {
			if err := trace.Write(store.TraceEntry{
				Chords:    step.Accepted,
				Loss:      step.Loss,
				Timestamp: time.Now(),
			}); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}

		now := time.Now()
		if now.Sub(lastFrame) >= framePeriod {
			publishFrame(jm, jobID, step.Working, anchors)
			lastFrame = now
		}

		if checkpointStore != nil && checkpointInterval > 0 && now.Sub(lastCheckpoint) >= checkpointInterval {
			if err := saveCheckpoint(checkpointStore, jobID, job.Config, step, state.CurrentAnchor, jm); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
			}
			lastCheckpoint = now
		}

		return nil
	}

	result, err := art.FitFrom(ctx, cfg, target, state, sink)
	close(progressDone)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	elapsed := time.Since(start)

	// A cancelled context still yields a valid partial result; report the
	// job as cancelled rather than completed.
	select {
	case <-ctx.Done():
		publishFrame(jm, jobID, result.Working, anchors)
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	publishFrame(jm, jobID, result.Working, anchors)

	if checkpointStore != nil {
		if err := saveFinalArtifacts(checkpointStore, jobID, job.Config, result); err != nil {
			slog.Warn("Failed to save final artifacts", "job_id", jobID, "error", err)
		}
	}
	if trace != nil {
		if err := trace.Flush(); err != nil {
			slog.Warn("Failed to flush trace", "job_id", jobID, "error", err)
		}
	}

	endTime := time.Now()
	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Chords = len(result.Chords)
		j.Loss = result.FinalLoss
		j.InitialLoss = result.InitialLoss
		j.EndTime = &endTime
	}); err != nil {
		return err
	}

	cps := float64(len(result.Chords)) / elapsed.Seconds()

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_loss", result.InitialLoss,
		"final_loss", result.FinalLoss,
		"chords", len(result.Chords),
		"chords_per_second", cps,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateCompleted,
		Chords:    len(result.Chords),
		Loss:      result.FinalLoss,
		CPS:       cps,
		Timestamp: time.Now(),
	})

	return nil
}

// publishFrame encodes the working grid as the job's preview frame and
// keeps a snapshot grid for the diff endpoint.
func publishFrame(jm *JobManager, jobID string, working *art.Grid, anchors []art.Point) {
	img := renderPreview(working, anchors, previewScale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("Failed to encode preview frame", "job_id", jobID, "error", err)
		return
	}

	jm.SetFrame(jobID, buf.Bytes())
	jm.SetGrid(jobID, working.Clone())
}

// saveCheckpoint persists the current fitting state.
func saveCheckpoint(checkpointStore store.Store, jobID string, config JobConfig, step art.Step, currentAnchor int, jm *JobManager) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Fast mode threads end at the J endpoint of the last accepted chord.
	anchor := currentAnchor
	if config.Mode == string(art.ModeFast) {
		anchor = step.Chord.J
	}

	checkpoint := store.NewCheckpoint(
		jobID,
		append([]float64(nil), step.Working.Pix...),
		step.Loss,
		job.InitialLoss,
		step.Accepted,
		anchor,
		config,
	)

	if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Checkpoint saved", "job_id", jobID, "chords", step.Accepted, "loss", step.Loss)
	return nil
}

// saveFinalArtifacts writes working.png next to the checkpoint data.
func saveFinalArtifacts(checkpointStore store.Store, jobID string, config JobConfig, result *art.Result) error {
	fs, ok := checkpointStore.(*store.FSStore)
	if !ok {
		return nil
	}

	finalAnchor := config.StartAnchor
	if len(result.Chords) > 0 && config.Mode == string(art.ModeFast) {
		finalAnchor = result.Chords[len(result.Chords)-1].J
	}

	checkpoint := store.NewCheckpoint(
		jobID,
		append([]float64(nil), result.Working.Pix...),
		result.FinalLoss,
		result.InitialLoss,
		len(result.Chords),
		finalAnchor,
		config,
	)
	if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		return err
	}

	path := fs.JobDir(jobID) + "/working.png"
	if err := art.SavePNG(result.Working, path); err != nil {
		return fmt.Errorf("failed to save working.png: %w", err)
	}

	slog.Debug("Final artifacts saved", "job_id", jobID, "path", path)
	return nil
}

// monitorProgress periodically broadcasts progress events during fitting
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, startTime time.Time, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}

			elapsed := time.Since(startTime).Seconds()

			var cps float64
			if elapsed > 0 && job.Chords > 0 {
				cps = float64(job.Chords) / elapsed
			}

			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:     jobID,
				State:     job.State,
				Chords:    job.Chords,
				Loss:      job.Loss,
				CPS:       cps,
				Timestamp: time.Now(),
			})
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
