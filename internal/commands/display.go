package commands

import (
	"fmt"
	"strings"
)

// formatOutcomeMessage creates a standardized result line for a finished wait
func formatOutcomeMessage(checkName, conclusion string, polls int, accepted bool) string {
	var msg strings.Builder

	if accepted {
		msg.WriteString(fmt.Sprintf("✅ Check run %s concluded %s", checkName, conclusion))
	} else {
		msg.WriteString(fmt.Sprintf("❌ Check run %s concluded %s", checkName, conclusion))
	}
	msg.WriteString(fmt.Sprintf(" after %d poll(s)\n", polls))

	return msg.String()
}

// DisplayOutcome displays the result of a finished wait
func DisplayOutcome(checkName, conclusion string, polls int, accepted bool) {
	fmt.Print(formatOutcomeMessage(checkName, conclusion, polls, accepted))
}
