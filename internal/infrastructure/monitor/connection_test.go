package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedSize int

func (f fixedSize) Size() (int, error) { return int(f), nil }

func TestMonitor_Refresh(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	m := New(up, down, fixedSize(4), time.Minute, nil)
	assert.False(t, m.IsOnline())

	status := m.Refresh()
	assert.True(t, status.Store)
	assert.False(t, status.Redis)
	assert.True(t, status.Buffer)
	assert.Equal(t, 4, status.BufferSize)
	assert.False(t, status.Healthy())
	assert.True(t, m.IsOnline())
	assert.Equal(t, status, m.GetStatus())
}

func TestMonitor_MissingDependencies(t *testing.T) {
	m := New(nil, nil, nil, 0, nil)
	status := m.Refresh()
	assert.False(t, status.Store)
	assert.False(t, status.Buffer)
	assert.False(t, m.IsOnline())
}

func TestMonitor_StartStop(t *testing.T) {
	m := New(PingFunc(func(context.Context) error { return nil }), nil, nil, 10*time.Millisecond, nil)
	m.Start()
	assert.Eventually(t, m.IsOnline, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()
}
