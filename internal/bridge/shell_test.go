package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/session"
)

type call struct {
	name string
	args []string
}

func fakeShell(out string, err error) (*Shell, *[]call) {
	calls := &[]call{}
	s := NewShell(nil)
	s.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		return []byte(out), err
	}
	s.start = func(name string, args ...string) error {
		*calls = append(*calls, call{name: name, args: args})
		return err
	}
	return s, calls
}

func TestGetVolumeParsesPactl(t *testing.T) {
	s, calls := fakeShell("Volume: front-left: 26214 /  40% / -23.88 dB,   front-right: 26214 /  40% / -23.88 dB\n", nil)

	assert.Equal(t, 40, s.GetVolume(context.Background()))
	require.Len(t, *calls, 1)
	assert.Equal(t, "pactl", (*calls)[0].name)
}

func TestGetVolumeDefaultsOnFailure(t *testing.T) {
	s, _ := fakeShell("", errors.New("no pactl"))
	assert.Equal(t, DefaultVolume, s.GetVolume(context.Background()))

	s, _ = fakeShell("garbage", nil)
	assert.Equal(t, DefaultVolume, s.GetVolume(context.Background()))
}

func TestSetVolumeAndBrightnessClamp(t *testing.T) {
	s, calls := fakeShell("", nil)
	ctx := context.Background()

	require.NoError(t, s.SetVolume(ctx, 140))
	require.NoError(t, s.SetBrightness(ctx, -3))

	assert.Equal(t, []string{"set-sink-volume", "@DEFAULT_SINK@", "100%"}, (*calls)[0].args)
	assert.Equal(t, "brightnessctl", (*calls)[1].name)
	assert.Equal(t, []string{"set", "0%"}, (*calls)[1].args)
}

func TestWindowOps(t *testing.T) {
	s, calls := fakeShell("", nil)
	ctx := context.Background()

	require.NoError(t, s.Window(ctx, WindowMinimize))
	require.NoError(t, s.Window(ctx, WindowMaximize))
	require.NoError(t, s.Window(ctx, WindowClose))
	assert.Error(t, s.Window(ctx, WindowOp("SPIN")))

	require.Len(t, *calls, 3)
	assert.Equal(t, []string{"kill"}, (*calls)[2].args)
}

func TestResolveApp(t *testing.T) {
	bin, args := ResolveApp(DefaultApps, "Chrome")
	assert.Equal(t, "google-chrome", bin)
	assert.Empty(t, args)

	bin, args = ResolveApp(DefaultApps, "spotify")
	assert.Equal(t, "xdg-open", bin)
	assert.Equal(t, []string{"spotify"}, args)

	bin, _ = ResolveApp(DefaultApps, "  ")
	assert.Empty(t, bin)
}

func TestLaunchAppUsesCustomTable(t *testing.T) {
	s, calls := fakeShell("", nil)
	s.apps["editor"] = "nvim -R"

	require.NoError(t, s.LaunchApp(context.Background(), "editor"))
	assert.Equal(t, call{name: "nvim", args: []string{"-R"}}, (*calls)[0])
	assert.Error(t, s.LaunchApp(context.Background(), ""))
}

func TestSetAppsKeepsDefaults(t *testing.T) {
	s, calls := fakeShell("", nil)
	s.SetApps(map[string]string{"Editor": "nvim"})

	require.NoError(t, s.LaunchApp(context.Background(), "editor"))
	require.NoError(t, s.LaunchApp(context.Background(), "firefox"))
	assert.Equal(t, []call{{name: "nvim", args: []string{}}, {name: "firefox", args: []string{}}}, *calls)
}

func TestScanDirectoryCapsResults(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 70; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, fmt.Sprintf("f%02d.txt", i)), nil, 0o644))
	}

	s := NewShell(nil)
	files := s.ScanDirectory(context.Background(), root)
	assert.Len(t, files, MaxScanResults)
	for _, f := range files {
		assert.NotEqual(t, root, f)
	}
}

func TestScanDirectoryMissingPathIsEmpty(t *testing.T) {
	s := NewShell(nil)
	files := s.ScanDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func fakeStats(load float64, used float64, temps []sensors.TemperatureStat, err error) hostStats {
	return hostStats{
		cpu: func(context.Context) ([]float64, error) { return []float64{load}, err },
		mem: func(context.Context) (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{UsedPercent: used}, nil
		},
		temp: func(context.Context) ([]sensors.TemperatureStat, error) { return temps, nil },
	}
}

func TestGetMetrics(t *testing.T) {
	s := NewShell(nil)
	s.stats = fakeStats(19.6, 40.2, []sensors.TemperatureStat{
		{SensorKey: "nvme_composite", Temperature: 38},
		{SensorKey: "coretemp_package_id_0", Temperature: 52.34},
	}, nil)

	assert.Equal(t, session.Metrics{CPU: 20, RAM: 40, Temp: 52.3}, s.GetMetrics(context.Background()))
}

func TestGetMetricsDefaultsOnFailure(t *testing.T) {
	s := NewShell(nil)
	s.stats = fakeStats(0, 0, nil, errors.New("no /proc"))

	assert.Equal(t, session.DefaultMetrics, s.GetMetrics(context.Background()))
}

func TestPickTemp(t *testing.T) {
	assert.Equal(t, 41.5, pickTemp([]sensors.TemperatureStat{{SensorKey: "acpitz", Temperature: 41.47}}))
	assert.Equal(t, session.DefaultMetrics.Temp, pickTemp(nil))
	assert.Equal(t, session.DefaultMetrics.Temp, pickTemp([]sensors.TemperatureStat{{SensorKey: "coretemp", Temperature: 0}}))
}

func TestParseWindowOp(t *testing.T) {
	op, ok := ParseWindowOp("minimize")
	assert.True(t, ok)
	assert.Equal(t, WindowMinimize, op)

	_, ok = ParseWindowOp("shrink")
	assert.False(t, ok)
}
