package bridge

import (
	"context"
	log "log/slog"
	"math"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"

	"jarvis/internal/session"
)

// hostStats is the host probe GetMetrics reads from.
type hostStats struct {
	cpu  func(ctx context.Context) ([]float64, error)
	mem  func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	temp func(ctx context.Context) ([]sensors.TemperatureStat, error)
}

var gopsutilStats = hostStats{
	// interval 0 compares against the previous call
	cpu:  func(ctx context.Context) ([]float64, error) { return cpu.PercentWithContext(ctx, 0, false) },
	mem:  mem.VirtualMemoryWithContext,
	temp: sensors.TemperaturesWithContext,
}

// cpuSensors are matched in order against sensor keys.
var cpuSensors = []string{"coretemp", "k10temp", "x86_pkg_temp", "cpu", "soc"}

func (s *Shell) GetMetrics(ctx context.Context) session.Metrics {
	load, err := s.stats.cpu(ctx)
	if err != nil || len(load) == 0 {
		log.Warn("Failed to read cpu", "err", err)
		return session.DefaultMetrics
	}

	vm, err := s.stats.mem(ctx)
	if err != nil {
		log.Warn("Failed to read memory", "err", err)
		return session.DefaultMetrics
	}

	// sensors reports partial readings together with warnings
	temps, err := s.stats.temp(ctx)
	if err != nil && len(temps) == 0 {
		log.Debug("No temperature sensors", "err", err)
	}

	return session.Metrics{
		CPU:  int(math.Round(load[0])),
		RAM:  int(math.Round(vm.UsedPercent)),
		Temp: pickTemp(temps),
	}
}

// pickTemp prefers a cpu package sensor and rounds to one decimal.
func pickTemp(temps []sensors.TemperatureStat) float64 {
	for _, want := range cpuSensors {
		for _, t := range temps {
			if strings.Contains(strings.ToLower(t.SensorKey), want) && t.Temperature > 0 {
				return math.Round(t.Temperature*10) / 10
			}
		}
	}
	for _, t := range temps {
		if t.Temperature > 0 {
			return math.Round(t.Temperature*10) / 10
		}
	}
	return session.DefaultMetrics.Temp
}
