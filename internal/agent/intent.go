package agent

import "strings"

// intent is what the user is asking the agent to do. Classification is a
// fixed cascade of keyword rules over the lowercased message; the first
// rule that fires wins, and anything unclassified is treated as a
// transformation request.
type intent int

const (
	intentTransform intent = iota
	intentGreeting
	intentHelp
	intentStatus
	intentSchedule
	intentConfirm
	intentCancel
)

var greetingWords = []string{
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
}

var scheduleWords = []string{
	"schedule", "every ", "daily", "hourly", "weekly", "cron",
}

var confirmExact = []string{"yes", "y", "ok", "okay", "sure", "yep", "yeah"}

var confirmPhrases = []string{"confirm", "proceed", "go ahead", "do it", "run it"}

var cancelExact = []string{"no", "n", "nope", "stop"}

var cancelPhrases = []string{"cancel", "abort", "never mind", "nevermind", "discard"}

func classify(message string) intent {
	lower := strings.ToLower(strings.TrimSpace(message))
	bare := strings.Trim(lower, " .,!?")

	for _, g := range greetingWords {
		if bare == g {
			return intentGreeting
		}
		// "hi there" greets; "hi, clean raw_orders" carries a request and
		// falls through to the rest of the cascade.
		if strings.HasPrefix(bare, g+" ") || strings.HasPrefix(bare, g+",") {
			rest := strings.Trim(bare[len(g):], " ,")
			if len(strings.Fields(rest)) <= 1 {
				return intentGreeting
			}
		}
	}

	if lower == "?" || strings.Contains(lower, "help") || strings.Contains(lower, "what can you do") {
		return intentHelp
	}

	if strings.Contains(lower, "status") || bare == "jobs" ||
		(strings.Contains(lower, "job") && (strings.Contains(lower, "list") || strings.Contains(lower, "show"))) {
		return intentStatus
	}

	for _, w := range scheduleWords {
		if strings.Contains(lower, w) {
			return intentSchedule
		}
	}

	for _, w := range confirmExact {
		if bare == w {
			return intentConfirm
		}
	}
	for _, w := range confirmPhrases {
		if strings.Contains(lower, w) {
			return intentConfirm
		}
	}

	for _, w := range cancelExact {
		if bare == w {
			return intentCancel
		}
	}
	for _, w := range cancelPhrases {
		if strings.Contains(lower, w) {
			return intentCancel
		}
	}

	return intentTransform
}
