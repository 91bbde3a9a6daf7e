package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

type mockState struct {
	value string
}

func (m *mockState) String() string {
	return m.value
}

func TestProgressStop(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	if !p.Stop() {
		t.Error("Stop() should return true on first call")
	}

	if p.Stop() {
		t.Error("Stop() should return false on subsequent calls")
	}

	output := buf.String()
	if !strings.HasPrefix(output, "\033[?25l") {
		t.Errorf("output should start by hiding the cursor, got %q", output)
	}

	if !strings.HasSuffix(output, "\033[?25h") {
		t.Errorf("output should end by showing the cursor, got %q", output)
	}
}

func TestProgressRender(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.Add(&mockState{value: "first"})
	p.Add(&mockState{value: "second"})
	p.Stop()

	output := buf.String()
	if !strings.Contains(output, "first\033[K\nsecond\033[K") {
		t.Errorf("render should include every state, got %q", output)
	}

	if p.pos != 2 {
		t.Errorf("pos = %d, want 2", p.pos)
	}
}

func TestProgressStopAndClear(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.Add(&mockState{value: "transient"})
	if !p.StopAndClear() {
		t.Fatal("StopAndClear() should return true on first call")
	}

	if output := buf.String(); !strings.Contains(output, "\033[2K") {
		t.Errorf("output should clear the line, got %q", output)
	}
}

func TestProgressStopsSpinners(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	spinner := NewSpinner("loading")
	p.Add(spinner)

	if spinner.isStopped() {
		t.Error("spinner should not be stopped before Progress.Stop()")
	}

	p.Stop()

	if !spinner.isStopped() {
		t.Error("spinner should be stopped after Progress.Stop()")
	}
}

func TestProgressWithBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	bar := NewBar("merging", 100)
	p.Add(bar)
	bar.Set(50)

	time.Sleep(150 * time.Millisecond)
	p.Stop()

	if output := buf.String(); !strings.Contains(output, "50%") {
		t.Errorf("output should contain bar percentage, got %q", output)
	}
}

func TestProgressConcurrentAdd(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)
	defer p.Stop()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Add(&mockState{value: "state"})
		}()
	}
	wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.states) != 10 {
		t.Errorf("states count = %d, want 10", len(p.states))
	}
}
