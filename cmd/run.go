package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/stringart/internal/art"
	"github.com/cwbudde/stringart/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	refPath            string
	outPath            string
	size               int
	anchors            int
	mode               string
	shape              string
	tolerance          float64
	startAnchor        int
	checkpointInterval int
	runDataDir         string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot string art rendering",
	Long: `Renders the reference image as string art and writes the result as PNG.
With --checkpoint-interval the run periodically saves its state under the
data directory, so an interrupted run can be continued with resume.`,
	RunE: runFit,
}

func init() {
	runCmd.Flags().StringVar(&refPath, "ref", "input.jpg", "Reference image path")
	runCmd.Flags().StringVar(&outPath, "out", "output.png", "Output image path")
	runCmd.Flags().IntVar(&size, "size", 300, "Grid side length in pixels")
	runCmd.Flags().IntVar(&anchors, "anchors", 271, "Number of boundary anchors")
	runCmd.Flags().StringVar(&mode, "mode", "fast", "Selection mode: fast, slow")
	runCmd.Flags().StringVar(&shape, "shape", "circle", "Frame shape: circle, square")
	runCmd.Flags().Float64Var(&tolerance, "tolerance", 0.5, "Stop tolerance for loss regressions")
	runCmd.Flags().IntVar(&startAnchor, "start", 0, "Starting anchor index for fast mode")
	runCmd.Flags().IntVar(&checkpointInterval, "checkpoint-interval", 0, "Checkpoint every N seconds (0 = disabled)")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "./data", "Base directory for checkpoint storage")

	rootCmd.AddCommand(runCmd)
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg := art.Config{
		Size:        size,
		Anchors:     anchors,
		Shape:       art.Shape(shape),
		Mode:        art.Mode(mode),
		Tolerance:   tolerance,
		StartAnchor: startAnchor,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.Info("Starting fit", "ref", refPath, "mode", mode, "shape", shape, "size", size, "anchors", anchors)

	target, err := art.LoadTarget(refPath, cfg)
	if err != nil {
		return fmt.Errorf("failed to load reference: %w", err)
	}

	jobConfig := store.JobConfig{
		RefPath:            refPath,
		Mode:               mode,
		Shape:              shape,
		Size:               size,
		Anchors:            anchors,
		Tolerance:          tolerance,
		StartAnchor:        startAnchor,
		CheckpointInterval: checkpointInterval,
	}

	var (
		checkpointStore *store.FSStore
		jobID           string
	)
	if checkpointInterval > 0 {
		checkpointStore, err = store.NewFSStore(runDataDir)
		if err != nil {
			return fmt.Errorf("failed to create checkpoint store: %w", err)
		}
		jobID = uuid.New().String()
		slog.Info("Checkpointing enabled", "job_id", jobID, "interval_seconds", checkpointInterval)
	}

	// Ctrl-C stops the selection loop; the partial result is still written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := newProgressLine()
	start := time.Now()
	initialLoss := art.Loss(target, art.NewGrid(cfg.Size))

	interval := time.Duration(checkpointInterval) * time.Second
	lastCheckpoint := start

	sink := func(step art.Step) error {
		progress.Update(step.Accepted, step.Loss)

		if checkpointStore != nil && time.Since(lastCheckpoint) >= interval {
			checkpoint := store.NewCheckpoint(
				jobID,
				append([]float64(nil), step.Working.Pix...),
				step.Loss,
				initialLoss,
				step.Accepted,
				step.Chord.J,
				jobConfig,
			)
			if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
				slog.Warn("Failed to save checkpoint", "job_id", jobID, "error", err)
			}
			lastCheckpoint = time.Now()
		}
		return nil
	}

	result, err := art.Fit(ctx, cfg, target, sink)
	progress.Done()
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := art.SavePNG(result.Working, outPath); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}

	if checkpointStore != nil {
		finalAnchor := startAnchor
		if len(result.Chords) > 0 && cfg.Mode == art.ModeFast {
			finalAnchor = result.Chords[len(result.Chords)-1].J
		}
		checkpoint := store.NewCheckpoint(
			jobID,
			append([]float64(nil), result.Working.Pix...),
			result.FinalLoss,
			result.InitialLoss,
			len(result.Chords),
			finalAnchor,
			jobConfig,
		)
		if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
			slog.Warn("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}

	cps := float64(len(result.Chords)) / elapsed.Seconds()

	slog.Info("Fit complete",
		"elapsed", elapsed,
		"initial_loss", result.InitialLoss,
		"final_loss", result.FinalLoss,
		"improvement", result.InitialLoss-result.FinalLoss,
		"chords", len(result.Chords),
		"chords_per_second", fmt.Sprintf("%.0f", cps),
	)

	fmt.Printf("Wrote %s (loss: %.2f -> %.2f, %d chords, %.0f chords/sec)\n",
		outPath, result.InitialLoss, result.FinalLoss, len(result.Chords), cps)

	return nil
}
