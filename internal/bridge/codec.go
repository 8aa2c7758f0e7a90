package bridge

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"jarvis/internal/session"
	"jarvis/pkg/protocol"
)

const (
	ServerShard = "BRIDGE"
	ClientShard = "JARVIS"
)

// Wire verbs and nouns.
const (
	verbGet    = "GET"
	verbSet    = "SET"
	verbWindow = "WINDOW"
	verbLaunch = "LAUNCH"
	verbScan   = "SCAN"

	nounVolume     = "VOLUME"
	nounBrightness = "BRIGHTNESS"
	nounMetrics    = "METRICS"
	nounApp        = "APP"
	nounDir        = "DIR"

	errUnknown = "UNKNOWN"
	errBadArg  = "BADARG"
	errFailed  = "FAILED"
)

// Free text (paths, app names) is carried base64url-encoded so it stays
// inside the protocol token alphabet.
func encodeArg(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func decodeArg(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("decode arg: %w", err)
	}
	return string(b), nil
}

func encodeMetrics(m session.Metrics) []string {
	return []string{
		strconv.Itoa(m.CPU),
		strconv.Itoa(m.RAM),
		strconv.FormatFloat(m.Temp, 'f', -1, 64),
	}
}

func decodeMetrics(args []string) (session.Metrics, error) {
	if len(args) != 3 {
		return session.Metrics{}, fmt.Errorf("metrics: want 3 args, got %d", len(args))
	}
	cpu, err := strconv.Atoi(args[0])
	if err != nil {
		return session.Metrics{}, fmt.Errorf("metrics cpu: %w", err)
	}
	ram, err := strconv.Atoi(args[1])
	if err != nil {
		return session.Metrics{}, fmt.Errorf("metrics ram: %w", err)
	}
	temp, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return session.Metrics{}, fmt.Errorf("metrics temp: %w", err)
	}
	return session.Metrics{CPU: cpu, RAM: ram, Temp: temp}, nil
}

// RemoteError is an ERR reply from the bridge process.
type RemoteError struct {
	Reason string
	Args   []string
}

func (e *RemoteError) Error() string {
	if len(e.Args) == 0 {
		return fmt.Sprintf("bridge error: %s", e.Reason)
	}
	return fmt.Sprintf("bridge error: %s %v", e.Reason, e.Args)
}

func replyErr(rep *protocol.Message) error {
	if rep.IsOk() {
		return nil
	}
	return &RemoteError{Reason: rep.Noun, Args: rep.Args}
}
