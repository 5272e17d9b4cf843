// Package window keeps a fixed-length sequence of observations, asks a
// predictor for the next value and shifts the sequence forward once the
// actual value is confirmed.
package window

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/SyedDaiam9101/window-predictor/internal/metrics"
)

// Size is the number of observations in a window.
const Size = 15

// State is the controller's position in the predict/confirm cycle.
type State int

const (
	// Idle means no prediction is available.
	Idle State = iota
	// Predicting means a prediction call is in flight.
	Predicting
	// Predicted means a prediction is available and awaits the actual value.
	Predicted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Predicting:
		return "predicting"
	case Predicted:
		return "predicted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "predicting":
		*s = Predicting
	case "predicted":
		*s = Predicted
	default:
		return fmt.Errorf("unknown state %q", b)
	}
	return nil
}

// Predictor produces the next value for a full window.
type Predictor interface {
	Predict(ctx context.Context, input []float32) (float32, error)
}

// Slot is one observation; the zero Slot is empty.
type Slot struct {
	Value  float64 `json:"value"`
	Filled bool    `json:"filled"`
}

// Stats summarizes a full window.
type Stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Slots      [Size]Slot `json:"slots"`
	State      State      `json:"state"`
	Prediction *float64   `json:"prediction,omitempty"`
	Actual     *float64   `json:"actual,omitempty"`
	Stats      *Stats     `json:"stats,omitempty"`
}

// Values returns the slot values oldest first. ok is false if any slot is empty.
func (s Snapshot) Values() (values []float64, ok bool) {
	values = make([]float64, 0, Size)
	for _, slot := range s.Slots {
		if !slot.Filled {
			return nil, false
		}
		values = append(values, slot.Value)
	}
	return values, true
}

// Controller owns the window, the current prediction and the staged actual
// value. All methods are safe for concurrent use; at most one prediction is
// in flight at a time.
type Controller struct {
	predictor Predictor

	mu         sync.Mutex
	slots      [Size]Slot
	state      State
	prediction float64
	actual     float64
	hasActual  bool
	// edits counts window mutations so an in-flight result computed for an
	// older window can be recognized.
	edits uint64
}

// New returns an empty, idle controller backed by predictor.
func New(predictor Predictor) *Controller {
	metrics.SetWindowState(int(Idle))
	return &Controller{predictor: predictor}
}

// SetSlot overwrites slot index with value. Editing a window that has a
// prediction invalidates it and returns the controller to Idle.
func (c *Controller) SetSlot(index int, value float64) error {
	if err := checkIndex(index); err != nil {
		return err
	}
	if err := CheckValue(fmt.Sprintf("slot %d", index+1), value); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[index] = Slot{Value: value, Filled: true}
	c.editedLocked()
	return nil
}

// ClearSlot empties slot index, with the same invalidation as SetSlot.
func (c *Controller) ClearSlot(index int) error {
	if err := checkIndex(index); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[index] = Slot{}
	c.editedLocked()
	return nil
}

func (c *Controller) editedLocked() {
	c.edits++
	if c.state == Predicted {
		log.Debug().Msg("window edited, discarding prediction")
		c.setStateLocked(Idle)
	}
}

// StageActual records the observed value that the next Shift appends.
func (c *Controller) StageActual(value float64) error {
	if err := CheckValue("actual value", value); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.actual = value
	c.hasActual = true
	return nil
}

// RequestPrediction sends the full window to the predictor and stores the
// result. It fails with ErrIncompleteWindow without calling the predictor if
// any slot is empty, and with ErrBusy if another request is in flight.
// Predictor errors are returned unchanged and leave the controller Idle.
func (c *Controller) RequestPrediction(ctx context.Context) (float64, error) {
	c.mu.Lock()
	if c.state == Predicting {
		c.mu.Unlock()
		metrics.RecordPredictionRequest("busy")
		return 0, ErrBusy
	}
	input, ok := c.inputLocked()
	if !ok {
		c.mu.Unlock()
		metrics.RecordPredictionRequest("incomplete")
		return 0, ErrIncompleteWindow
	}
	c.setStateLocked(Predicting)
	edits := c.edits
	c.mu.Unlock()

	value, err := c.predictor.Predict(ctx, input)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.setStateLocked(Idle)
		metrics.RecordPredictionRequest("error")
		log.Warn().Err(err).Msg("prediction failed")
		return 0, err
	}
	if c.edits != edits {
		c.setStateLocked(Idle)
		metrics.RecordPredictionRequest("stale")
		return 0, ErrWindowChanged
	}

	c.prediction = round(float64(value))
	c.setStateLocked(Predicted)
	metrics.RecordPredictionRequest("ok")
	log.Debug().Float64("prediction", c.prediction).Msg("prediction stored")
	return c.prediction, nil
}

func (c *Controller) inputLocked() ([]float32, bool) {
	input := make([]float32, 0, Size)
	for _, slot := range c.slots {
		if !slot.Filled {
			return nil, false
		}
		input = append(input, float32(slot.Value))
	}
	return input, true
}

// Shift confirms the staged actual value: the oldest observation is dropped,
// the actual value becomes the newest, and the prediction and staged value
// are cleared. On failure nothing changes.
func (c *Controller) Shift() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasActual {
		return ErrMissingActual
	}
	if c.state != Predicted {
		return ErrNoPrediction
	}

	copy(c.slots[:], c.slots[1:])
	c.slots[Size-1] = Slot{Value: c.actual, Filled: true}
	c.actual = 0
	c.hasActual = false
	c.edits++
	c.setStateLocked(Idle)

	metrics.RecordShift()
	log.Info().Float64("appended", c.slots[Size-1].Value).Msg("window shifted")
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Slots: c.slots,
		State: c.state,
	}
	if c.state == Predicted {
		p := c.prediction
		snap.Prediction = &p
	}
	if c.hasActual {
		a := c.actual
		snap.Actual = &a
	}
	if values, ok := snap.Values(); ok {
		mean, std := stat.MeanStdDev(values, nil)
		snap.Stats = &Stats{
			Mean:   mean,
			StdDev: std,
			Min:    floats.Min(values),
			Max:    floats.Max(values),
		}
	}
	return snap
}

func (c *Controller) setStateLocked(s State) {
	c.state = s
	metrics.SetWindowState(int(s))
}
