package store

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { fires.Add(1) })
	d.Start()
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return fires.Load() == 1 },
		time.Second, 5*time.Millisecond, "rapid triggers must coalesce into one run")

	// And it stays at one.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load())
}

func TestDebouncer_TriggerBeforeStartIgnored(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { fires.Add(1) })

	d.Trigger()
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, fires.Load())
}

func TestDebouncer_StopFlushesPending(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(time.Hour, func() { fires.Add(1) })
	d.Start()

	d.Trigger()
	d.Stop()

	assert.Equal(t, int32(1), fires.Load(), "Stop must run the pending save synchronously")
}

func TestDebouncer_StopWithoutPendingIsQuiet(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(time.Hour, func() { fires.Add(1) })
	d.Start()
	d.Stop()
	assert.Zero(t, fires.Load())
}

func TestDebouncer_TriggerAfterStopIgnored(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(5*time.Millisecond, func() { fires.Add(1) })
	d.Start()
	d.Stop()

	d.Trigger()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, fires.Load())
}

func TestDebouncer_FlushIsImmediate(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(time.Hour, func() { fires.Add(1) })
	d.Start()
	defer d.Stop()

	d.Trigger()
	d.Flush()
	assert.Equal(t, int32(1), fires.Load())

	// Nothing pending anymore; a second flush is a no-op.
	d.Flush()
	assert.Equal(t, int32(1), fires.Load())
}

func TestDebouncer_RestartAfterStop(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(5*time.Millisecond, func() { fires.Add(1) })
	d.Start()
	d.Stop()

	d.Start()
	d.Trigger()
	assert.Eventually(t, func() bool { return fires.Load() == 1 },
		time.Second, time.Millisecond)
	d.Stop()
}
