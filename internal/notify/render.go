// Package notify renders normalized records into chat text and delivers it
// to the configured destinations. Delivery is advisory: the store append is
// the source of truth and no failure here escalates to the event.
package notify

import (
	"fmt"
	"strings"

	"github.com/greenest/greenest-go/internal/record"
)

// Render produces the per-observation chat message.
func Render(rec *record.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌱 *Tray Update*: `%s`\n", rec.TrayName)
	fmt.Fprintf(&b, "• Growth: %s%%\n", rec.GrowthPercent)
	fmt.Fprintf(&b, "• Health: %s\n", rec.Health)
	fmt.Fprintf(&b, "• Action: %s\n", rec.RecommendedAction)
	if rec.Notes != record.Sentinel {
		fmt.Fprintf(&b, "• Notes: %s\n", rec.Notes)
	}
	fmt.Fprintf(&b, "• Time: %s", rec.Timestamp)
	return b.String()
}

// RenderSummary produces the dashboard summary message from the latest
// observation per tray, in first-seen tray order.
func RenderSummary(latest []record.Record) string {
	if len(latest) == 0 {
		return "⚠️ No tray data available."
	}

	var b strings.Builder
	b.WriteString("*🌿 GreeNest Farm Dashboard Summary 🌿*\n\n")
	for i := range latest {
		rec := &latest[i]
		fmt.Fprintf(&b, "• `%s` | 🌱 %s%% | 💪 %s | 📌 %s | 🕒 %s\n",
			rec.TrayName, rec.GrowthPercent, rec.Health, rec.RecommendedAction, rec.Timestamp)
	}
	return b.String()
}
