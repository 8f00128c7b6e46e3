package store

import (
	"fmt"
	"time"
)

// JobConfig holds configuration for a fitting job (checkpoint copy).
// This avoids import cycles with the server package.
type JobConfig struct {
	RefPath            string  `json:"refPath"`
	Mode               string  `json:"mode"`  // fast, slow
	Shape              string  `json:"shape"` // circle, square
	Size               int     `json:"size"`
	Anchors            int     `json:"anchors"`
	Tolerance          float64 `json:"tolerance"`
	StartAnchor        int     `json:"startAnchor"`
	CheckpointInterval int     `json:"checkpointInterval,omitempty"` // Checkpoint every N seconds (0 = disabled)
}

// Checkpoint represents a saved fitting state that can be resumed later.
// All fields are serialized to JSON for persistence.
//
// The greedy search is fully determined by the working grid, the loss it
// achieves and (in fast mode) the current anchor, so a resumed run
// continues exactly where the interrupted run left off: no optimizer
// population or history needs to be carried.
type Checkpoint struct {
	// JobID is the unique identifier for this fitting job
	JobID string `json:"jobId"`

	// Grid contains the working grid values in row-major order,
	// Size*Size entries
	Grid []float64 `json:"grid"`

	// PrevLoss is the loss achieved by Grid against the target
	PrevLoss float64 `json:"prevLoss"`

	// InitialLoss is the loss of the empty grid, for improvement tracking
	InitialLoss float64 `json:"initialLoss"`

	// Chords is the number of chords accepted so far
	Chords int `json:"chords"`

	// CurrentAnchor is the thread position for fast mode
	CurrentAnchor int `json:"currentAnchor"`

	// Timestamp records when this checkpoint was created
	Timestamp time.Time `json:"timestamp"`

	// Config holds the job configuration, needed for validation during
	// resume. Resumed jobs must use compatible settings (same image, mode,
	// grid geometry).
	Config JobConfig `json:"config"`
}

// CheckpointInfo contains metadata about a checkpoint without the grid data.
// Used for listing checkpoints efficiently without loading large grids.
type CheckpointInfo struct {
	JobID     string    `json:"jobId"`
	PrevLoss  float64   `json:"prevLoss"`
	Chords    int       `json:"chords"`
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`
	Size      int       `json:"size"`
	Anchors   int       `json:"anchors"`
	RefPath   string    `json:"refPath"`
}

// NewCheckpoint creates a checkpoint from job state.
func NewCheckpoint(jobID string, grid []float64, prevLoss, initialLoss float64, chords, currentAnchor int, config JobConfig) *Checkpoint {
	return &Checkpoint{
		JobID:         jobID,
		Grid:          grid,
		PrevLoss:      prevLoss,
		InitialLoss:   initialLoss,
		Chords:        chords,
		CurrentAnchor: currentAnchor,
		Timestamp:     time.Now(),
		Config:        config,
	}
}

// ToInfo converts a full Checkpoint to CheckpointInfo (metadata only).
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:     c.JobID,
		PrevLoss:  c.PrevLoss,
		Chords:    c.Chords,
		Timestamp: c.Timestamp,
		Mode:      c.Config.Mode,
		Size:      c.Config.Size,
		Anchors:   c.Config.Anchors,
		RefPath:   c.Config.RefPath,
	}
}

// Validate checks if the checkpoint has valid data.
// Returns an error if any required field is missing or invalid.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(c.Grid) == 0 {
		return &ValidationError{Field: "Grid", Reason: "cannot be empty"}
	}
	if c.Config.Size < 2 {
		return &ValidationError{Field: "Config.Size", Reason: "must be at least 2"}
	}
	if c.Config.Anchors < 2 {
		return &ValidationError{Field: "Config.Anchors", Reason: "must be at least 2"}
	}
	if len(c.Grid) != c.Config.Size*c.Config.Size {
		return &ValidationError{
			Field:  "Grid",
			Reason: fmt.Sprintf("length mismatch: expected %d values for size %d", c.Config.Size*c.Config.Size, c.Config.Size),
		}
	}
	for i, v := range c.Grid {
		if v < 0 {
			return &ValidationError{Field: "Grid", Reason: fmt.Sprintf("negative value at index %d", i)}
		}
	}
	if c.PrevLoss < 0 {
		return &ValidationError{Field: "PrevLoss", Reason: "cannot be negative"}
	}
	if c.InitialLoss < 0 {
		return &ValidationError{Field: "InitialLoss", Reason: "cannot be negative"}
	}
	if c.Chords < 0 {
		return &ValidationError{Field: "Chords", Reason: "cannot be negative"}
	}
	if c.CurrentAnchor < 0 || c.CurrentAnchor >= c.Config.Anchors {
		return &ValidationError{Field: "CurrentAnchor", Reason: "out of anchor range"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.RefPath == "" {
		return &ValidationError{Field: "Config.RefPath", Reason: "cannot be empty"}
	}
	if c.Config.Mode == "" {
		return &ValidationError{Field: "Config.Mode", Reason: "cannot be empty"}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks if this checkpoint can be resumed with the given config.
// Returns an error if the configs are incompatible.
func (c *Checkpoint) IsCompatible(config JobConfig) error {
	if c.Config.RefPath != config.RefPath {
		return &CompatibilityError{Field: "RefPath", Expected: c.Config.RefPath, Actual: config.RefPath}
	}
	if c.Config.Mode != config.Mode {
		return &CompatibilityError{Field: "Mode", Expected: c.Config.Mode, Actual: config.Mode}
	}
	if c.Config.Shape != config.Shape {
		return &CompatibilityError{Field: "Shape", Expected: c.Config.Shape, Actual: config.Shape}
	}
	if c.Config.Size != config.Size {
		return &CompatibilityError{
			Field:    "Size",
			Expected: fmt.Sprintf("%d", c.Config.Size),
			Actual:   fmt.Sprintf("%d", config.Size),
		}
	}
	if c.Config.Anchors != config.Anchors {
		return &CompatibilityError{
			Field:    "Anchors",
			Expected: fmt.Sprintf("%d", c.Config.Anchors),
			Actual:   fmt.Sprintf("%d", config.Anchors),
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
