package vanish_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rkuznets/vanish"
)

func TestTimerScheduler_Fires(t *testing.T) {
	s := vanish.NewTimerScheduler()

	fired := make(chan struct{})
	s.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task never fired")
	}
}

func TestTimerScheduler_Cancel(t *testing.T) {
	s := vanish.NewTimerScheduler()

	fired := make(chan struct{}, 1)
	h := s.AfterFunc(50*time.Millisecond, func() { fired <- struct{}{} })

	assert.True(t, h.Cancel())

	select {
	case <-fired:
		t.Fatal("canceled task fired anyway")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestTimerScheduler_CancelAfterFire(t *testing.T) {
	s := vanish.NewTimerScheduler()

	fired := make(chan struct{})
	h := s.AfterFunc(time.Millisecond, func() { close(fired) })
	<-fired

	assert.False(t, h.Cancel())
}
