package waiter

import (
	"fmt"
	"strings"
)

// Summary renders a completed wait as a Markdown job summary
func Summary(cfg *PollConfig, outcome *Outcome) string {
	var b strings.Builder

	verdict := "✅"
	if !cfg.Accepts(outcome.Conclusion) {
		verdict = "❌"
	}

	name := outcome.Run.Name
	if outcome.Run.HTMLURL != "" {
		name = fmt.Sprintf("[%s](%s)", name, outcome.Run.HTMLURL)
	}

	b.WriteString("### Check run\n\n")
	b.WriteString("| Check | Repository | Ref | Conclusion | Polls |\n")
	b.WriteString("|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s/%s | `%s` | %s %s | %d |\n",
		name, cfg.Owner, cfg.Repo, cfg.Ref, verdict, outcome.Conclusion, outcome.Polls)

	return b.String()
}
