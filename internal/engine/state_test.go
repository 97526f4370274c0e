package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netwatch-io/netwatch/internal/model"
)

func boolp(v bool) *bool { return &v }

func record(ok bool) model.ProbeRecord {
	r := model.ProbeRecord{Timestamp: time.Now(), Success: ok}
	if ok {
		lat := 1.5
		r.LatencyMS = &lat
	} else {
		msg := "connection refused"
		r.Message = &msg
	}
	return r
}

func TestRetentionLimit(t *testing.T) {
	assert.Equal(t, 60, retentionLimit(0, 10*time.Second), "zero days clamps to the floor")
	assert.Equal(t, 8640, retentionLimit(1, 10*time.Second))
	assert.Equal(t, 25920, retentionLimit(3, 10*time.Second))
}

func TestRetentionLimitSubSecondTick(t *testing.T) {
	// Ticks under one second must not truncate to a zero divisor.
	assert.Equal(t, 5_184_000, retentionLimit(3, 50*time.Millisecond))
	assert.Equal(t, 60, retentionLimit(0, 20*time.Millisecond))
	// A non-positive tick falls back to the default instead of panicking.
	assert.Equal(t, 25920, retentionLimit(3, 0))
}

func TestFirstProbeEstablishesStateWithoutPersistedState(t *testing.T) {
	st := newTargetState(model.Target{ID: "a"})
	require.False(t, st.State(), "provisional state defaults to down")

	emit, state := st.apply(record(true), 100)
	assert.True(t, emit, "no persisted state: the first probe must emit")
	assert.True(t, state)
}

func TestFirstProbeFailureWithoutPersistedStateStillEmits(t *testing.T) {
	st := newTargetState(model.Target{ID: "a"})

	emit, state := st.apply(record(false), 100)
	assert.True(t, emit)
	assert.False(t, state)
}

func TestFirstProbeConfirmingPersistedStateIsSilent(t *testing.T) {
	st := newTargetState(model.Target{ID: "a", LastKnownState: boolp(true)})
	require.True(t, st.State())

	emit, state := st.apply(record(true), 100)
	assert.False(t, emit, "confirming the persisted state must not flap")
	assert.True(t, state)
}

func TestFirstProbeContradictingPersistedStateEmitsOnce(t *testing.T) {
	st := newTargetState(model.Target{ID: "a", LastKnownState: boolp(true)})

	emit, state := st.apply(record(false), 100)
	assert.True(t, emit)
	assert.False(t, state)

	// The next disagreeing-with-history probe must not re-emit.
	emit, _ = st.apply(record(false), 100)
	assert.False(t, emit)
}

func TestWarmupShortcutFlipsOnSingleDisagreement(t *testing.T) {
	st := newTargetState(model.Target{ID: "a", LastKnownState: boolp(true)})

	emit, _ := st.apply(record(true), 100)
	require.False(t, emit)

	// Second record, fewer than the full window: flip immediately.
	emit, state := st.apply(record(false), 100)
	assert.True(t, emit)
	assert.False(t, state)
}

func TestSteadyStateRequiresFullWindow(t *testing.T) {
	st := newTargetState(model.Target{ID: "a"})

	// Establish UP with three successes.
	var emits int
	for range 3 {
		if emit, _ := st.apply(record(true), 100); emit {
			emits++
		}
	}
	require.Equal(t, 1, emits, "only the first probe emits")
	require.True(t, st.State())

	// Two failures are not enough.
	emit, _ := st.apply(record(false), 100)
	assert.False(t, emit)
	emit, _ = st.apply(record(false), 100)
	assert.False(t, emit)
	require.True(t, st.State())

	// The third consecutive failure flips.
	emit, state := st.apply(record(false), 100)
	assert.True(t, emit)
	assert.False(t, state)
}

func TestFlapSuppression(t *testing.T) {
	st := newTargetState(model.Target{ID: "t1"})

	// Down, established.
	st.apply(record(false), 100)
	require.False(t, st.State())

	// Intermittent successes never flip the state back up.
	for _, ok := range []bool{false, true, false, false, true, false, false, false, true} {
		emit, _ := st.apply(record(ok), 100)
		assert.False(t, emit, "intermittent results must not emit")
		assert.False(t, st.State())
	}

	// The sequence above ended with one success; two more make three
	// consecutive, which flips.
	emit, state := st.apply(record(true), 100)
	require.False(t, emit)
	require.False(t, state)
	emit, state = st.apply(record(true), 100)
	assert.True(t, emit)
	assert.True(t, state)
}

func TestRecordsTrimmedNewestFirst(t *testing.T) {
	st := newTargetState(model.Target{ID: "a"})
	const limit = 5

	for i := range 8 {
		r := record(true)
		r.Timestamp = time.Unix(int64(1000+i), 0)
		st.apply(r, limit)
	}

	status := st.Status()
	require.Len(t, status.Records, limit)
	for i := 1; i < len(status.Records); i++ {
		assert.True(t, status.Records[i-1].Timestamp.After(status.Records[i].Timestamp),
			"records must stay newest-first")
	}
	assert.Equal(t, int64(1007), status.Records[0].Timestamp.Unix())
}

func TestShrinkingLimitTruncatesExistingHistory(t *testing.T) {
	st := newTargetState(model.Target{ID: "a"})
	for range 10 {
		st.apply(record(true), 100)
	}
	st.apply(record(true), 5)
	assert.Len(t, st.Status().Records, 5)
}

func TestStatusReturnsDeepCopy(t *testing.T) {
	st := newTargetState(model.Target{ID: "a", Name: "orig"})
	st.apply(record(true), 10)

	status := st.Status()
	status.Target.Name = "mutated"
	*status.Records[0].LatencyMS = 999

	fresh := st.Status()
	assert.Equal(t, "orig", fresh.Target.Name)
	assert.Equal(t, 1.5, *fresh.Records[0].LatencyMS)
}

func TestSetLastKnownState(t *testing.T) {
	st := newTargetState(model.Target{ID: "a"})
	st.setLastKnownState(true)
	status := st.Status()
	require.NotNil(t, status.Target.LastKnownState)
	assert.True(t, *status.Target.LastKnownState)
}
