package intent

import (
	"fmt"
	"strings"
	"time"
)

const Acknowledged = "Acknowledged, sir. Command processed."

type Weather struct {
	City      string `yaml:"city"`
	TempF     int    `yaml:"temp_f"`
	Condition string `yaml:"condition"`
}

var DefaultWeather = Weather{City: "Malibu", TempF: 72, Condition: "Clear"}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Canned picks the offline reply for an utterance the completer could not
// answer. Checks are substring matches in fixed order.
func Canned(text string, w Weather, now time.Time) string {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "hello", "hi", "hey"):
		return "Good day, sir. All primary systems are nominal and I am fully operational. How may I be of assistance?"
	case containsAny(lower, "how are you", "status"):
		return "All systems are functioning within optimal parameters, sir. Arc Reactor output is stable at 100%. Is there something specific you require?"
	case strings.Contains(lower, "weather"):
		return fmt.Sprintf("Current atmospheric conditions at %s: %d°F, %s. Visibility is clear, sir.", w.City, w.TempF, w.Condition)
	case strings.Contains(lower, "time"):
		return fmt.Sprintf("The current time is %s, sir.", now.Format("3:04:05 PM"))
	case strings.Contains(lower, "thank"):
		return "Of course, sir. It is my privilege to assist. Is there anything else you require?"
	case containsAny(lower, "help", "what can you do"):
		return "I can assist with: YouTube playback, Google searches, email drafting, task management, reminders, system diagnostics, and much more. Simply state your directive, sir."
	default:
		return fmt.Sprintf("Understood, sir. I've processed your directive: \"%s\". The neural network is currently operating in low-bandwidth mode. Full AI capabilities will be restored momentarily.", text)
	}
}
