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
	"github.com/spf13/cobra"
)

var (
	resumeDataDir   string
	resumeOutPath   string
	resumeTolerance float64
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume a fit from its checkpoint",
	Long: `Loads the checkpoint for the given job and continues the greedy
selection exactly where it stopped. The reference image, mode, shape
and grid geometry are taken from the checkpoint; only the stop
tolerance may be overridden.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	resumeCmd.Flags().StringVar(&resumeOutPath, "out", "output.png", "Output image path")
	resumeCmd.Flags().Float64Var(&resumeTolerance, "tolerance", -1, "Stop tolerance override (negative keeps the stored value)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("corrupt checkpoint: %w", err)
	}

	config := checkpoint.Config
	if resumeTolerance >= 0 {
		config.Tolerance = resumeTolerance
	}
	if err := checkpoint.IsCompatible(config); err != nil {
		return err
	}

	cfg := art.Config{
		Size:        config.Size,
		Anchors:     config.Anchors,
		Shape:       art.Shape(config.Shape),
		Mode:        art.Mode(config.Mode),
		Tolerance:   config.Tolerance,
		StartAnchor: config.StartAnchor,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.Info("Resuming fit",
		"job_id", jobID,
		"ref", config.RefPath,
		"chords", checkpoint.Chords,
		"loss", checkpoint.PrevLoss,
	)

	target, err := art.LoadTarget(config.RefPath, cfg)
	if err != nil {
		return fmt.Errorf("failed to load reference: %w", err)
	}

	working := art.NewGrid(cfg.Size)
	copy(working.Pix, checkpoint.Grid)

	state := art.State{
		Working:       working,
		PrevLoss:      checkpoint.PrevLoss,
		CurrentAnchor: checkpoint.CurrentAnchor,
		Accepted:      checkpoint.Chords,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := newProgressLine()
	sink := func(step art.Step) error {
		progress.Update(step.Accepted, step.Loss)
		return nil
	}

	start := time.Now()
	result, err := art.FitFrom(ctx, cfg, target, state, sink)
	progress.Done()
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := art.SavePNG(result.Working, resumeOutPath); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}

	// Persist the continued state so the job can be resumed again.
	finalAnchor := checkpoint.CurrentAnchor
	if len(result.Chords) > 0 && cfg.Mode == art.ModeFast {
		finalAnchor = result.Chords[len(result.Chords)-1].J
	}
	updated := store.NewCheckpoint(
		jobID,
		append([]float64(nil), result.Working.Pix...),
		result.FinalLoss,
		checkpoint.InitialLoss,
		checkpoint.Chords+len(result.Chords),
		finalAnchor,
		config,
	)
	if err := checkpointStore.SaveCheckpoint(jobID, updated); err != nil {
		slog.Warn("Failed to update checkpoint", "job_id", jobID, "error", err)
	}

	slog.Info("Resume complete",
		"job_id", jobID,
		"elapsed", elapsed,
		"final_loss", result.FinalLoss,
		"new_chords", len(result.Chords),
	)

	fmt.Printf("Wrote %s (loss: %.2f -> %.2f, +%d chords)\n",
		resumeOutPath, checkpoint.PrevLoss, result.FinalLoss, len(result.Chords))

	return nil
}
