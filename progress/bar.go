package progress

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/tokenizer-hi/bpe/format"
)

// Bar counts discrete units of work, such as merge rounds.
type Bar struct {
	mu sync.Mutex

	message      string
	messageWidth int

	maxValue     int64
	currentValue int64

	started time.Time
	stopped time.Time
}

func NewBar(message string, maxValue int64) *Bar {
	return &Bar{
		message:      message,
		messageWidth: -1,
		maxValue:     maxValue,
		started:      time.Now(),
	}
}

// formatDuration limits the rendering of a time.Duration to 2 units
func formatDuration(d time.Duration) string {
	if d >= 100*time.Hour {
		return "99h+"
	}

	if d >= time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}

	return d.Round(time.Second).String()
}

func (b *Bar) String() string {
	termWidth, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil {
		termWidth = defaultTermWidth
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var pre, mid, suf strings.Builder

	if b.message != "" {
		message := strings.TrimSpace(b.message)
		if b.messageWidth > 0 && len(message) > b.messageWidth {
			message = message[:b.messageWidth]
		}

		fmt.Fprintf(&pre, "%s", message)
		if b.messageWidth-pre.Len() >= 0 {
			pre.WriteString(strings.Repeat(" ", b.messageWidth-pre.Len()))
		}

		pre.WriteString(" ")
	}

	fmt.Fprintf(&pre, "%3.0f%% ", math.Floor(b.percent()))

	fmt.Fprintf(&suf, "(%s/%s", format.HumanNumber(uint64(b.currentValue)), format.HumanNumber(uint64(b.maxValue)))

	elapsed := b.elapsed()
	var timing string
	if rate := b.rate(); rate > 0 && b.stopped.IsZero() {
		fmt.Fprintf(&suf, ", %.1f/s", rate)
		remaining := time.Duration(float64(b.maxValue-b.currentValue) / rate * float64(time.Second))
		timing = fmt.Sprintf("[%s:%s]", formatDuration(elapsed), formatDuration(remaining))
	} else if !b.stopped.IsZero() {
		timing = fmt.Sprintf("[%s]", formatDuration(elapsed))
	}

	fmt.Fprintf(&suf, ")")

	// 32 is the maximum width for the stats on the right of the progress bar
	if suf.Len()+len(timing) < 32 {
		suf.WriteString(strings.Repeat(" ", 32-suf.Len()-len(timing)))
	}

	suf.WriteString(timing)

	// add 3 extra spaces: 2 boundary characters and 1 space at the end
	f := termWidth - pre.Len() - suf.Len() - 3
	n := int(float64(f) * b.percent() / 100)

	if f > 0 {
		mid.WriteString("▕")
		mid.WriteString(repeat("█", n))
		mid.WriteString(repeat(" ", f-n))
		mid.WriteString("▏")
	}

	return pre.String() + mid.String() + suf.String()
}

// Set moves the bar to value. Reaching the maximum stops the clock.
func (b *Bar) Set(value int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if value >= b.maxValue {
		value = b.maxValue
	}

	b.currentValue = value
	if value >= b.maxValue && b.stopped.IsZero() {
		b.stopped = time.Now()
	}
}

// Finish stops the clock at the current value, for work that ends early.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped.IsZero() {
		b.stopped = time.Now()
	}
}

func (b *Bar) percent() float64 {
	if b.maxValue > 0 {
		return float64(b.currentValue) / float64(b.maxValue) * 100
	}

	return 0
}

func (b *Bar) elapsed() time.Duration {
	if !b.stopped.IsZero() {
		return b.stopped.Sub(b.started)
	}

	return time.Since(b.started)
}

// rate is units completed per second since the bar was created.
func (b *Bar) rate() float64 {
	elapsed := b.elapsed().Seconds()
	if elapsed <= 0 {
		return 0
	}

	return float64(b.currentValue) / elapsed
}

func repeat(s string, n int) string {
	if n > 0 {
		return strings.Repeat(s, n)
	}

	return ""
}
