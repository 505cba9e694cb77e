package fuzzer_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alma.local/valobs/cell"
	"alma.local/valobs/fuzzer"
	"alma.local/valobs/observers"
)

// failingObserver rejects executions, which value observers never do.
type failingObserver struct{ err error }

func (f failingObserver) Name() string { return "failing" }
func (f failingObserver) PreExec(observers.State, []byte) error { return f.err }
func (f failingObserver) PostExec(observers.State, []byte, observers.ExitKind) error { return nil }

func TestInProcessFuzzer_CounterAccumulates(t *testing.T) {
	counter := 0
	coll, err := observers.NewCollection(observers.NewValueObserver("counter", &counter))
	require.NoError(t, err)

	f, err := fuzzer.NewInProcessFuzzer(func(input []byte) error {
		counter += len(input)
		return nil
	}, coll)
	require.NoError(t, err)

	sig1, err := f.Execute([]byte("abc"))
	require.NoError(t, err)
	sig2, err := f.Execute([]byte("de"))
	require.NoError(t, err)

	// no reset between executions
	assert.Equal(t, 5, counter)
	assert.Equal(t, uint64(2), f.Executions())
	assert.NotEqual(t, sig1.RunID, sig2.RunID)
	assert.NotEqual(t, sig1.ObserverHashes["counter"], sig2.ObserverHashes["counter"])

	stored := 5
	want, _ := observers.NewValueObserver("counter", &stored).Hash()
	assert.Equal(t, want, sig2.ObserverHashes["counter"])

	f.Reset()
	assert.Equal(t, uint64(0), f.Executions())
	assert.Empty(t, f.RunID())
	assert.Equal(t, 5, counter)
}

func TestInProcessFuzzer_ExitKinds(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		harness fuzzer.Harness
		want    observers.ExitKind
	}{
		{name: "ok", harness: func([]byte) error { return nil }, want: observers.ExitOk},
		{name: "error", harness: func([]byte) error { return boom }, want: observers.ExitError},
		{name: "crash", harness: func([]byte) error { panic("index out of range") }, want: observers.ExitCrash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := fuzzer.NewInProcessFuzzer(tt.harness, nil)
			require.NoError(t, err)

			sig, err := f.Execute(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sig.Exit)
		})
	}
}

func TestInProcessFuzzer_RefCellTarget(t *testing.T) {
	events := cell.New([]string{})
	coll, err := observers.NewCollection(observers.NewRefCellValueObserver("events", events))
	require.NoError(t, err)

	f, err := fuzzer.NewInProcessFuzzer(func(input []byte) error {
		events.Update(func(v *[]string) { *v = append(*v, string(input)) })
		return nil
	}, coll)
	require.NoError(t, err)

	for _, in := range []string{"a", "b", "c"} {
		_, err := f.Execute([]byte(in))
		require.NoError(t, err)
	}

	obs, err := observers.Lookup[*observers.RefCellValueObserver[[]string]](f.Observers(), "events")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, obs.Take())
}

func TestInProcessFuzzer_ObserverFailureAborts(t *testing.T) {
	boom := errors.New("boom")
	coll, err := observers.NewCollection(failingObserver{err: boom})
	require.NoError(t, err)

	ran := false
	f, err := fuzzer.NewInProcessFuzzer(func([]byte) error {
		ran = true
		return nil
	}, coll)
	require.NoError(t, err)

	_, err = f.Execute([]byte("x"))
	assert.True(t, errors.Is(err, boom))
	assert.False(t, ran)
}

func TestInProcessFuzzer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	fn := func() {}
	coll, err := observers.NewCollection(observers.NewValueObserver("callback", &fn))
	require.NoError(t, err)

	calls := 0
	f, err := fuzzer.NewInProcessFuzzer(func([]byte) error {
		calls++
		if calls == 2 {
			panic("boom")
		}
		return nil
	}, coll, fuzzer.WithMetrics(reg))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.Execute(nil)
		require.NoError(t, err)
	}

	count, err := testutil.GatherAndCount(reg, "valobs_executions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	expected := `
# HELP valobs_observer_hash_unavailable_total Observer hash reads that had no canonical encoding
# TYPE valobs_observer_hash_unavailable_total counter
valobs_observer_hash_unavailable_total 3
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "valobs_observer_hash_unavailable_total"))

	_, err = fuzzer.NewInProcessFuzzer(func([]byte) error { return nil }, nil, fuzzer.WithMetrics(reg))
	assert.Error(t, err)
}

func TestInProcessFuzzer_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	f, err := fuzzer.NewInProcessFuzzer(func([]byte) error { return nil }, nil, fuzzer.WithLogger(logger))
	require.NoError(t, err)

	_, err = f.Execute([]byte("abcd"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "execution finished")
	assert.Contains(t, buf.String(), "input_len=4")
	assert.Contains(t, buf.String(), "run_id="+f.RunID())
}

func TestNewInProcessFuzzer_NilHarness(t *testing.T) {
	_, err := fuzzer.NewInProcessFuzzer(nil, nil)
	assert.True(t, errors.Is(err, fuzzer.ErrNilHarness))
}

func TestInProcessFuzzer_ImplementsInterfaces(t *testing.T) {
	var _ fuzzer.Fuzzer = (*fuzzer.InProcessFuzzer)(nil)
	var _ observers.State = (*fuzzer.InProcessFuzzer)(nil)
}
