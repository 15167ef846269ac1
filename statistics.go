package hypnagogo

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// fpsWindow is how many recent ticks the rolling FPS is computed over.
const fpsWindow = 32

// Statistics tracks per-tick wall time for the generation loop.
type Statistics struct {
	Ticks     int
	Durations []time.Duration
}

func makeStatistics() Statistics {
	return Statistics{
		Durations: make([]time.Duration, 0, 64),
	}
}

func (s *Statistics) observe(d time.Duration) {
	s.Ticks++
	s.Durations = append(s.Durations, d)
}

// FPS is the frame rate over the most recent ticks.
func (s *Statistics) FPS() float64 {
	if len(s.Durations) == 0 {
		return 0
	}
	recent := s.Durations
	if len(recent) > fpsWindow {
		recent = recent[len(recent)-fpsWindow:]
	}
	var total time.Duration
	for _, d := range recent {
		total += d
	}
	if total == 0 {
		return 0
	}
	return float64(len(recent)) / total.Seconds()
}

// Dump writes the per-tick timings as CSV: tick, seconds.
func (s *Statistics) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"tick", "seconds"}); err != nil {
		return err
	}
	var records [][]string
	for i, d := range s.Durations {
		records = append(records, []string{
			strconv.Itoa(i),
			strconv.FormatFloat(d.Seconds(), 'f', 6, 64),
		})
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
