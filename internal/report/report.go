// Package report serializes finished discussions. It produces a markdown
// document for the archive directory and a styled terminal summary for
// end-of-run display. Reports are append-only artifacts: once written they
// are never modified.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/finchly/parley/internal/discussion"
	"github.com/finchly/parley/internal/util"
)

// DefaultTruncateAt bounds message content length in rendered reports.
const DefaultTruncateAt = 200

// Emitter writes discussion reports to a directory with timestamped
// filenames.
type Emitter struct {
	dir        string
	truncateAt int
}

// NewEmitter creates an emitter writing under dir. A truncateAt of zero or
// less falls back to the default.
func NewEmitter(dir string, truncateAt int) *Emitter {
	if truncateAt <= 0 {
		truncateAt = DefaultTruncateAt
	}
	return &Emitter{dir: dir, truncateAt: truncateAt}
}

// Write renders the discussion to markdown and writes it to a new
// timestamped file, returning the path.
func (e *Emitter) Write(disc *discussion.Discussion) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create directory %s: %w", e.dir, err)
	}

	name := fmt.Sprintf("discussion-%s-%s.md",
		disc.StartedAt.Format("20060102-150405"), shortID(disc.ID))
	path := filepath.Join(e.dir, name)

	if err := os.WriteFile(path, []byte(RenderMarkdown(disc, e.truncateAt)), 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// RenderMarkdown serializes a discussion to a markdown document with a
// stable layout: header, metadata, per-round transcript, progression
// summary.
func RenderMarkdown(disc *discussion.Discussion, truncateAt int) string {
	if truncateAt <= 0 {
		truncateAt = DefaultTruncateAt
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Discussion Report: %s\n\n", disc.Topic.Subject)

	verdict := "no consensus"
	if disc.Success {
		verdict = "consensus reached"
	}
	fmt.Fprintf(&sb, "- **Discussion:** %s\n", disc.ID)
	if disc.Topic.Constraints != "" {
		fmt.Fprintf(&sb, "- **Constraints:** %s\n", disc.Topic.Constraints)
	}
	fmt.Fprintf(&sb, "- **Participants:** %s\n", strings.Join(disc.Participants, ", "))
	fmt.Fprintf(&sb, "- **Started:** %s\n", disc.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "- **Duration:** %s\n", disc.Duration.Round(time.Millisecond))
	fmt.Fprintf(&sb, "- **Rounds:** %d\n", len(disc.Rounds))
	fmt.Fprintf(&sb, "- **Final consensus:** %.0f%% (%s)\n", disc.FinalScore*100, verdict)
	if disc.Truncated {
		sb.WriteString("- **Note:** discussion was truncated by its deadline\n")
	}
	sb.WriteString("\n")

	for _, round := range disc.Rounds {
		agreed, disagreed, abstained := round.Counts()
		fmt.Fprintf(&sb, "## Round %d - %.0f%% consensus\n\n", round.Number, round.Score*100)
		fmt.Fprintf(&sb, "%d agreed, %d disagreed, %d abstained\n\n", agreed, disagreed, abstained)
		for _, msg := range round.Messages {
			content := util.TruncateString(strings.ReplaceAll(msg.Content, "\n", " "), truncateAt)
			if content == "" {
				content = "_(no response)_"
			}
			fmt.Fprintf(&sb, "- **%s** (%s): %s\n", msg.Participant, msg.Stance, content)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Consensus progression\n\n")
	sb.WriteString(progression(disc.Rounds))
	sb.WriteString("\n")
	return sb.String()
}

// progression renders the round-by-round score trajectory.
func progression(rounds []discussion.Round) string {
	if len(rounds) == 0 {
		return "(no rounds)\n"
	}
	parts := make([]string, 0, len(rounds))
	for _, r := range rounds {
		parts = append(parts, fmt.Sprintf("%.0f%%", r.Score*100))
	}
	return strings.Join(parts, " -> ") + "\n"
}

// shortID returns the leading segment of a uuid for filenames.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
