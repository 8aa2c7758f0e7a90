package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepare(t *testing.T) {
	cases := []struct{ in, want string }{
		{"**Good day, sir.** All systems nominal.", "Good day, sir. All systems nominal."},
		{"# Status\n\n- CPU at `12` percent", "Status - CPU at 12 percent"},
		{"See [the dashboard](https://stark.example/d) for details.", "See the dashboard for details."},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Prepare(tc.in), tc.in)
	}
}
