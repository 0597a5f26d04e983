// Package replay plays scripted pointer samples into a gesture sink.
package replay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/frudas24/touchpad/internal/gesture"
	"gopkg.in/yaml.v3"
)

// Step is one scripted sample. After is the delay since the previous step.
type Step struct {
	Phase   string        `yaml:"phase"`
	Pointer int           `yaml:"pointer"`
	X       float64       `yaml:"x"`
	Y       float64       `yaml:"y"`
	After   time.Duration `yaml:"after"`
}

// Script is an ordered list of steps.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Load reads and validates a YAML script.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	script, err := Parse(data)
	if err != nil {
		return Script{}, fmt.Errorf("script %s: %w", path, err)
	}
	return script, nil
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return Script{}, err
	}
	if err := script.Validate(); err != nil {
		return Script{}, err
	}
	return script, nil
}

// Validate checks every step.
func (s Script) Validate() error {
	if len(s.Steps) == 0 {
		return errors.New("script has no steps")
	}
	for i, step := range s.Steps {
		if _, err := gesture.ParsePhase(step.Phase); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if step.X < 0 || step.X > 1 || step.Y < 0 || step.Y > 1 {
			return fmt.Errorf("step %d: position (%g,%g) outside [0..1]", i, step.X, step.Y)
		}
		if step.After < 0 {
			return fmt.Errorf("step %d: negative delay %s", i, step.After)
		}
	}
	return nil
}

// Samples converts the script into samples timestamped from start.
func Samples(s Script, start time.Time) []gesture.Sample {
	out := make([]gesture.Sample, 0, len(s.Steps))
	at := start
	for _, step := range s.Steps {
		at = at.Add(step.After)
		phase, _ := gesture.ParsePhase(step.Phase)
		out = append(out, gesture.Sample{
			Phase:   phase,
			Pointer: step.Pointer,
			X:       step.X,
			Y:       step.Y,
			At:      at,
		})
	}
	return out
}

// Play feeds the script into sink. In realtime mode every delay is waited
// out and samples carry wall-clock timestamps; otherwise samples are fed at
// once on a virtual clock starting now.
func Play(ctx context.Context, s Script, sink gesture.SampleSink, realtime bool) error {
	if !realtime {
		for _, sample := range Samples(s, time.Now()) {
			if err := ctx.Err(); err != nil {
				return err
			}
			sink.Feed(sample)
		}
		return nil
	}

	for _, step := range s.Steps {
		if step.After > 0 {
			timer := time.NewTimer(step.After)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		phase, _ := gesture.ParsePhase(step.Phase)
		sink.Feed(gesture.Sample{
			Phase:   phase,
			Pointer: step.Pointer,
			X:       step.X,
			Y:       step.Y,
			At:      time.Now(),
		})
	}
	return nil
}
