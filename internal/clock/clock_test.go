package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_NowAdvances(t *testing.T) {
	start := time.Unix(1000, 0)
	f := NewFake(start)
	assert.Equal(t, start, f.Now())

	f.Advance(5 * time.Second)
	assert.Equal(t, start.Add(5*time.Second), f.Now())
}

func TestFake_AfterFiresOnAdvance(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	ch := f.After(100 * time.Millisecond)

	select {
	case <-ch:
		t.Fatal("After fired before deadline")
	default:
	}

	f.Advance(50 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("After fired before deadline")
	default:
	}

	f.Advance(50 * time.Millisecond)
	select {
	case <-ch:
	default:
		t.Fatal("After did not fire once deadline passed")
	}
}

func TestFake_AfterZeroDurationFiresImmediately(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	ch := f.After(0)
	select {
	case <-ch:
	default:
		t.Fatal("zero-duration After should fire immediately")
	}
}

func TestReal_SatisfiesInterface(t *testing.T) {
	var c Clock = Real{}
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
