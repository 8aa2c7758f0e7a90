package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

const maxStreamVolume = 150

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id   int
	from int
	to   int
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Ducker lowers the volume of other applications' pulse sink inputs while
// the assistant speaks and restores them afterwards. Streams whose
// application.name is in self are left alone.
type Ducker struct {
	mu        sync.Mutex
	active    bool
	self      []string
	original  map[int]int
	minVolume int
	factor    float64
	fadeDur   time.Duration
	run       runFunc
}

func NewDucker(self []string, factor float64, minVolume int) *Ducker {
	if factor <= 0 || factor > 1 {
		factor = 0.3
	}
	return &Ducker{
		self:      append([]string(nil), self...),
		original:  make(map[int]int),
		minVolume: clampVolume(minVolume),
		factor:    factor,
		fadeDur:   150 * time.Millisecond,
		run:       runCommand,
	}
}

// Duck fades other streams to factor of their volume, never below minVolume.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := d.list(ctx)
	if err != nil {
		return err
	}

	d.original = make(map[int]int)
	var fades []fade
	for _, s := range streams {
		if d.isSelf(s) {
			continue
		}
		to := int(math.Round(float64(s.Volume) * d.factor))
		if to < d.minVolume {
			to = d.minVolume
		}
		d.original[s.ID] = s.Volume
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: clampVolume(to)})
	}

	if err := d.fade(ctx, fades); err != nil {
		return err
	}
	d.active = true
	return nil
}

// Restore fades ducked streams back. Streams that appeared after Duck are
// not touched.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := d.list(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, s := range streams {
		orig, ok := d.original[s.ID]
		if !ok || d.isSelf(s) {
			continue
		}
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: orig})
	}

	if err := d.fade(ctx, fades); err != nil {
		return err
	}
	d.original = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) isSelf(s sinkInput) bool {
	for _, name := range d.self {
		if s.AppName == name {
			return true
		}
	}
	return false
}

func (d *Ducker) list(ctx context.Context) ([]sinkInput, error) {
	out, err := d.run(ctx, "pactl", "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

func (d *Ducker) fade(ctx context.Context, fades []fade) error {
	if len(fades) == 0 {
		return nil
	}

	steps := int(d.fadeDur / (10 * time.Millisecond))
	if steps < 1 {
		steps = 1
	}
	step := d.fadeDur / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			if err := d.setVolume(ctx, f.id, v); err != nil {
				return err
			}
		}
		if i < steps && step > 0 {
			time.Sleep(step)
		}
	}
	return nil
}

func (d *Ducker) setVolume(ctx context.Context, id, percent int) error {
	arg := strconv.Itoa(clampVolume(percent)) + "%"
	if _, err := d.run(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), arg); err != nil {
		return fmt.Errorf("set volume id=%d: %w", id, err)
	}
	return nil
}

func clampVolume(v int) int {
	return max(0, min(v, maxStreamVolume))
}

// parseSinkInputs reads `pactl list sink-inputs` output.
func parseSinkInputs(text string) []sinkInput {
	parts := strings.Split(text, "Sink Input #")
	var res []sinkInput

	for _, block := range parts[1:] {
		nl := strings.IndexByte(block, '\n')
		if nl <= 0 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(block[:nl]))
		if err != nil {
			continue
		}

		s := sinkInput{ID: id}
		for _, line := range strings.Split(block[nl+1:], "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); m != nil {
					s.Volume, _ = strconv.Atoi(m[1])
				}
			}
			if name, ok := strings.CutPrefix(line, "application.name = "); ok && s.AppName == "" {
				s.AppName = strings.Trim(name, `"`)
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}
		res = append(res, s)
	}
	return res
}
