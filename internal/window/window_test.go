package window

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SyedDaiam9101/window-predictor/internal/inference"
)

func fill(t *testing.T, c *Controller, values ...float64) {
	t.Helper()
	for i, v := range values {
		require.NoError(t, c.SetSlot(i, v))
	}
}

func oneToFifteen() []float64 {
	values := make([]float64, Size)
	for i := range values {
		values[i] = float64(i + 1)
	}
	return values
}

func slotValues(t *testing.T, c *Controller) []float64 {
	t.Helper()
	values, ok := c.Snapshot().Values()
	require.True(t, ok, "window should be full")
	return values
}

func TestNewControllerIsEmptyAndIdle(t *testing.T) {
	c := New(inference.NewMock(0))

	snap := c.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Nil(t, snap.Prediction)
	assert.Nil(t, snap.Actual)
	assert.Nil(t, snap.Stats)
	for i, slot := range snap.Slots {
		assert.False(t, slot.Filled, "slot %d", i)
	}
}

func TestPredictThenShift(t *testing.T) {
	mock := inference.NewMock(16.0)
	c := New(mock)
	fill(t, c, oneToFifteen()...)

	got, err := c.RequestPrediction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16.0, got)
	assert.Equal(t, Predicted, c.State())
	require.NotNil(t, c.Snapshot().Prediction)
	assert.Equal(t, 16.0, *c.Snapshot().Prediction)

	require.Len(t, mock.Inputs(), 1)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, mock.Inputs()[0])

	require.NoError(t, c.StageActual(16))
	require.NoError(t, c.Shift())

	snap := c.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Nil(t, snap.Prediction)
	assert.Nil(t, snap.Actual)
	assert.Equal(t, []float64{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, slotValues(t, c))
}

func TestIncompleteWindowNeverCallsPredictor(t *testing.T) {
	mock := inference.NewMock(1)
	c := New(mock)
	values := oneToFifteen()
	for i, v := range values {
		if i == 5 {
			continue
		}
		require.NoError(t, c.SetSlot(i, v))
	}

	_, err := c.RequestPrediction(context.Background())
	assert.ErrorIs(t, err, ErrIncompleteWindow)
	assert.Equal(t, 0, mock.CallCount())
	assert.Equal(t, Idle, c.State())
}

func TestIncompleteWindowKeepsExistingState(t *testing.T) {
	mock := inference.NewMock(1)
	c := New(mock)
	fill(t, c, oneToFifteen()...)
	_, err := c.RequestPrediction(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.ClearSlot(0))
	_, err = c.RequestPrediction(context.Background())
	assert.ErrorIs(t, err, ErrIncompleteWindow)
	assert.Equal(t, 1, mock.CallCount())
}

func TestEveryEmptySlotBlocksPrediction(t *testing.T) {
	for empty := 0; empty < Size; empty++ {
		mock := inference.NewMock(1)
		c := New(mock)
		fill(t, c, oneToFifteen()...)
		require.NoError(t, c.ClearSlot(empty))

		_, err := c.RequestPrediction(context.Background())
		assert.ErrorIs(t, err, ErrIncompleteWindow, "empty slot %d", empty)
		assert.Zero(t, mock.CallCount(), "empty slot %d", empty)
	}
}

func TestShiftWithoutActualIsNoop(t *testing.T) {
	c := New(inference.NewMock(16))
	fill(t, c, oneToFifteen()...)
	_, err := c.RequestPrediction(context.Background())
	require.NoError(t, err)

	before := c.Snapshot()
	err = c.Shift()
	assert.ErrorIs(t, err, ErrMissingActual)
	assert.Equal(t, before, c.Snapshot())
	assert.Equal(t, Predicted, c.State())
}

func TestShiftWithoutPrediction(t *testing.T) {
	c := New(inference.NewMock(16))
	fill(t, c, oneToFifteen()...)
	require.NoError(t, c.StageActual(16))

	before := c.Snapshot()
	assert.ErrorIs(t, c.Shift(), ErrNoPrediction)
	assert.Equal(t, before, c.Snapshot())
}

func TestShiftDropsOldestAndAppendsActual(t *testing.T) {
	c := New(inference.NewMock(50))
	values := []float64{0, 99, 12.34, 5.5, 0.01, 7, 8, 9, 10, 11, 12, 13, 14, 15, 98.99}
	fill(t, c, values...)

	for _, actual := range []float64{42.42, 0, 99} {
		_, err := c.RequestPrediction(context.Background())
		require.NoError(t, err)
		require.NoError(t, c.StageActual(actual))

		before := slotValues(t, c)
		require.NoError(t, c.Shift())
		after := slotValues(t, c)

		assert.Len(t, after, Size)
		assert.Equal(t, append(before[1:], actual), after)
	}
}

func TestPredictorErrorLeavesControllerIdle(t *testing.T) {
	cases := []error{
		&inference.ModelLoadError{Path: "model.onnx", Err: errors.New("corrupt")},
		&inference.InferenceError{Err: errors.New("no output tensor found")},
		&inference.InvalidInputError{Got: 14},
	}
	for _, want := range cases {
		mock := inference.NewMock(1)
		mock.SetError(want)
		c := New(mock)
		fill(t, c, oneToFifteen()...)
		before := slotValues(t, c)

		_, err := c.RequestPrediction(context.Background())
		assert.Same(t, want, err)
		assert.Equal(t, want.Error(), err.Error())
		assert.Equal(t, Idle, c.State())
		assert.Nil(t, c.Snapshot().Prediction)
		assert.Equal(t, before, slotValues(t, c))
	}
}

func TestModelLoadFailureIsRetryable(t *testing.T) {
	mock := inference.NewMock(7)
	mock.LoadErr = errors.New("missing artifact")
	c := New(mock)
	fill(t, c, oneToFifteen()...)

	_, err := c.RequestPrediction(context.Background())
	require.Error(t, err)
	assert.True(t, inference.IsModelLoad(err))

	mock.LoadErr = nil
	got, err := c.RequestPrediction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestFailedPredictionClearsPreviousPrediction(t *testing.T) {
	mock := inference.NewMock(3)
	c := New(mock)
	fill(t, c, oneToFifteen()...)
	_, err := c.RequestPrediction(context.Background())
	require.NoError(t, err)

	mock.SetError(&inference.InferenceError{Err: errors.New("boom")})
	_, err = c.RequestPrediction(context.Background())
	require.Error(t, err)
	assert.Nil(t, c.Snapshot().Prediction)
	assert.Equal(t, Idle, c.State())
}

func TestConcurrentPredictionIsBusy(t *testing.T) {
	mock := inference.NewMock(16)
	mock.Gate = make(chan struct{})
	c := New(mock)
	fill(t, c, oneToFifteen()...)

	done := make(chan error, 1)
	go func() {
		_, err := c.RequestPrediction(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return c.State() == Predicting }, time.Second, time.Millisecond)

	_, err := c.RequestPrediction(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(mock.Gate)
	require.NoError(t, <-done)
	assert.Equal(t, Predicted, c.State())
	assert.Equal(t, 1, mock.CallCount())
}

func TestEditDuringPredictionDiscardsResult(t *testing.T) {
	mock := inference.NewMock(16)
	mock.Gate = make(chan struct{})
	c := New(mock)
	fill(t, c, oneToFifteen()...)

	done := make(chan error, 1)
	go func() {
		_, err := c.RequestPrediction(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return c.State() == Predicting }, time.Second, time.Millisecond)

	require.NoError(t, c.SetSlot(3, 40))
	close(mock.Gate)

	assert.ErrorIs(t, <-done, ErrWindowChanged)
	assert.Equal(t, Idle, c.State())
	assert.Nil(t, c.Snapshot().Prediction)
}

func TestEditAfterPredictionInvalidatesIt(t *testing.T) {
	c := New(inference.NewMock(16))
	fill(t, c, oneToFifteen()...)
	_, err := c.RequestPrediction(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.StageActual(16))

	require.NoError(t, c.SetSlot(0, 3))
	assert.Equal(t, Idle, c.State())
	assert.Nil(t, c.Snapshot().Prediction)
	assert.ErrorIs(t, c.Shift(), ErrNoPrediction)
}

func TestDeterministicAfterShiftRoundTrip(t *testing.T) {
	mock := inference.NewMock(16)
	c := New(mock)
	values := oneToFifteen()
	fill(t, c, values...)

	first, err := c.RequestPrediction(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.StageActual(16))
	require.NoError(t, c.Shift())

	// Put the window back the way it was and predict again.
	fill(t, c, values...)
	second, err := c.RequestPrediction(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	inputs := mock.Inputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, inputs[0], inputs[1])
}

func TestPredictionIsRounded(t *testing.T) {
	c := New(inference.NewMock(3.14159))
	fill(t, c, oneToFifteen()...)

	got, err := c.RequestPrediction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.14, got)
}

func TestSetSlotValidation(t *testing.T) {
	c := New(inference.NewMock(0))

	cases := []struct {
		name  string
		index int
		value float64
	}{
		{"negative index", -1, 1},
		{"index past end", Size, 1},
		{"below range", 0, -0.01},
		{"above range", 0, 99.01},
		{"too precise", 0, 1.234},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.SetSlot(tc.index, tc.value)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}

	for i, slot := range c.Snapshot().Slots {
		assert.False(t, slot.Filled, "slot %d", i)
	}
}

func TestStageActualValidation(t *testing.T) {
	c := New(inference.NewMock(0))

	err := c.StageActual(100)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Nil(t, c.Snapshot().Actual)

	require.NoError(t, c.StageActual(12.5))
	require.NotNil(t, c.Snapshot().Actual)
	assert.Equal(t, 12.5, *c.Snapshot().Actual)
}

func TestSnapshotStats(t *testing.T) {
	c := New(inference.NewMock(0))
	fill(t, c, oneToFifteen()...)

	stats := c.Snapshot().Stats
	require.NotNil(t, stats)
	assert.InDelta(t, 8.0, stats.Mean, 1e-9)
	assert.InDelta(t, 4.472135955, stats.StdDev, 1e-6)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 15.0, stats.Max)
}

func TestStateText(t *testing.T) {
	for _, s := range []State{Idle, Predicting, Predicted} {
		b, err := s.MarshalText()
		require.NoError(t, err)

		var got State
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}

	var s State
	assert.Error(t, s.UnmarshalText([]byte("shifting")))
}
