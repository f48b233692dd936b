package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/ronda/internal/models"
)

// FormatReport renders a human-readable summary of a session: header with
// start/end/duration, verified and missed sections with per-checkpoint
// details, and overall counts with an efficiency percentage. Pure and
// deterministic given its input.
func FormatReport(v SessionView) string {
	var verified, missed []CheckpointView
	for _, cv := range v.Checkpoints {
		if cv.State == models.StateVerified {
			verified = append(verified, cv)
		} else {
			missed = append(missed, cv)
		}
	}

	var b strings.Builder
	b.WriteString("📊 Patrol report\n")
	fmt.Fprintf(&b, "Started:  %s\n", v.StartedAt.Format(time.RFC3339))
	if v.EndedAt != nil {
		fmt.Fprintf(&b, "Ended:    %s\n", v.EndedAt.Format(time.RFC3339))
		fmt.Fprintf(&b, "Duration: %s\n", v.EndedAt.Sub(v.StartedAt).Round(time.Second))
	} else {
		b.WriteString("Status:   in progress\n")
	}
	b.WriteString("\n")

	if len(verified) > 0 {
		b.WriteString("✅ Verified checkpoints:\n")
		for _, cv := range verified {
			writeCheckpointLine(&b, cv)
		}
		b.WriteString("\n")
	}
	if len(missed) > 0 {
		b.WriteString("❌ Missed checkpoints:\n")
		for _, cv := range missed {
			writeCheckpointLine(&b, cv)
		}
		b.WriteString("\n")
	}

	total := len(v.Checkpoints)
	b.WriteString("📈 Summary:\n")
	fmt.Fprintf(&b, "• Total checkpoints: %d\n", total)
	fmt.Fprintf(&b, "• Verified: %d\n", len(verified))
	fmt.Fprintf(&b, "• Missed: %d\n", len(missed))
	if total > 0 {
		fmt.Fprintf(&b, "• Efficiency: %.0f%%\n", float64(len(verified))*100/float64(total))
	}
	return b.String()
}

func writeCheckpointLine(b *strings.Builder, cv CheckpointView) {
	fmt.Fprintf(b, "• %s (%.5f, %.5f; radius %.0f m; allotted %d min)\n",
		cv.Name, cv.Latitude, cv.Longitude, cv.RadiusMeters, cv.TimeMinutes)
}
