package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-transcript-service/internal/relay"
)

func TestScheduler_RunOncePrunesEmptyChannels(t *testing.T) {
	reg := relay.NewRegistry("speech", "insights")
	r := relay.New(reg, nil)

	require.NoError(t, r.Connect("speech", relay.NewQueue("a", 1), relay.RoleBoth))
	require.NoError(t, r.Connect("insights", relay.NewQueue("b", 1), relay.RoleBoth))
	r.Disconnect("insights", "b")

	s := New(reg, "@every 1h")
	assert.Equal(t, 1, s.RunOnce())
	assert.Equal(t, map[string]int{"speech": 1}, reg.Stats())
	assert.Zero(t, s.RunOnce())
}

func TestScheduler_StartRunsJob(t *testing.T) {
	reg := relay.NewRegistry("speech")
	r := relay.New(reg, nil)
	require.NoError(t, r.Connect("speech", relay.NewQueue("a", 1), relay.RoleBoth))
	r.Disconnect("speech", "a")

	s := New(reg, "@every 1s")
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		_, ok := reg.Lookup("speech")
		return !ok
	}, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(relay.NewRegistry("speech"), "not a schedule")
	assert.Error(t, s.Start())
	s.Stop()
}
