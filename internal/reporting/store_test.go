package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securewipe/internal/wipe"
)

func sampleReport(jobID, device string, outcome wipe.Outcome) wipe.Report {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return wipe.Report{
		JobID:           jobID,
		Device:          device,
		Method:          "dod",
		Outcome:         outcome,
		PassesCompleted: 3,
		TotalPasses:     3,
		Verified:        true,
		BytesWritten:    1 << 30,
		StartTime:       start,
		EndTime:         start.Add(42 * time.Minute),
	}
}

func TestStoreInsertAndList(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.InsertJob(sampleReport("job-1", "/dev/sdb", wipe.OutcomeCompleted)))
	require.NoError(t, store.InsertJob(sampleReport("job-2", "/dev/sdc", wipe.OutcomeFailed)))

	jobs, err := store.ListJobs("", 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	got := jobs[0]
	assert.Equal(t, "dod", got.Method)
	assert.Equal(t, 3, got.PassesCompleted)
	assert.Equal(t, uint64(1<<30), got.BytesWritten)
	assert.True(t, got.Verified)
	assert.Equal(t, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), got.StartTime)
}

func TestStoreListByDevice(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.InsertJob(sampleReport("job-1", "/dev/sdb", wipe.OutcomeCompleted)))
	require.NoError(t, store.InsertJob(sampleReport("job-2", "/dev/sdc", wipe.OutcomeCompleted)))

	jobs, err := store.ListJobs("/dev/sdc", 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-2", jobs[0].JobID)
}

func TestStoreUpsertByJobID(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	r := sampleReport("job-1", "/dev/sdb", wipe.OutcomeCancelled)
	require.NoError(t, store.InsertJob(r))

	r.Outcome = wipe.OutcomeCompleted
	r.Verified = false
	r.VerifyNote = "проверка выявила несовпадения"
	require.NoError(t, store.InsertJob(r))

	jobs, err := store.ListJobs("", 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, wipe.OutcomeCompleted, jobs[0].Outcome)
	assert.False(t, jobs[0].Verified)
	assert.Equal(t, "проверка выявила несовпадения", jobs[0].VerifyNote)
}

func TestStoreEmptyList(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	jobs, err := store.ListJobs("", 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
