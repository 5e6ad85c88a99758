// Package record defines the canonical tray observation record and the
// normalization of heterogeneous inbound payloads onto it.
package record

import "time"

// Sentinel fills any field the producer did not supply. Row width is
// invariant: every stored row carries all twelve cells.
const Sentinel = "N/A"

// TimestampLayout is the sortable textual timestamp format used in rows.
const TimestampLayout = "2006-01-02 15:04:05"

// Source identifies the inbound channel an observation arrived through.
type Source string

const (
	SourceDirect   Source = "direct_push"
	SourceBotImage Source = "bot_image"
	SourceRelay    Source = "relay"
)

// FieldKeys is the canonical ordered field set. This ordering is the store's
// column contract; changing it requires a schema version upgrade, which the
// header reconciler will self-heal on the next append.
var FieldKeys = []string{
	"tray_name",
	"seed_type",
	"growth_percent",
	"health",
	"days_since_sowing",
	"est_harvest",
	"lighting_stage",
	"mist_level",
	"notes",
	"recommended_action",
	"environment_flags",
	"timestamp",
}

// HeaderTitles are the display names written to the store's header row, in
// canonical column order.
var HeaderTitles = []string{
	"Tray Name",
	"Seed Type",
	"Growth %",
	"Health",
	"Days Since Sowing",
	"Est. Harvest",
	"Lighting Stage",
	"Mist Level",
	"Notes",
	"Recommended Action",
	"Environment Flags",
	"Timestamp",
}

// Record is one normalized tray observation. All fields are scalar strings;
// numeric values that fail to parse upstream are carried in raw string form.
// A Record is immutable after normalization and persisted by a single append.
type Record struct {
	TrayName          string
	SeedType          string
	GrowthPercent     string
	Health            string
	DaysSinceSowing   string
	EstHarvest        string
	LightingStage     string
	MistLevel         string
	Notes             string
	RecommendedAction string
	EnvironmentFlags  string
	Timestamp         string
}

// Row returns the record's cells in canonical column order.
func (r *Record) Row() []string {
	return []string{
		r.TrayName,
		r.SeedType,
		r.GrowthPercent,
		r.Health,
		r.DaysSinceSowing,
		r.EstHarvest,
		r.LightingStage,
		r.MistLevel,
		r.Notes,
		r.RecommendedAction,
		r.EnvironmentFlags,
		r.Timestamp,
	}
}

// FromRow rebuilds a record from a stored row. Short rows are padded with
// the sentinel so partially written historical rows remain readable.
func FromRow(cells []string) Record {
	cell := func(i int) string {
		if i < len(cells) && cells[i] != "" {
			return cells[i]
		}
		return Sentinel
	}
	return Record{
		TrayName:          cell(0),
		SeedType:          cell(1),
		GrowthPercent:     cell(2),
		Health:            cell(3),
		DaysSinceSowing:   cell(4),
		EstHarvest:        cell(5),
		LightingStage:     cell(6),
		MistLevel:         cell(7),
		Notes:             cell(8),
		RecommendedAction: cell(9),
		EnvironmentFlags:  cell(10),
		Timestamp:         cell(11),
	}
}

// ObservedAt parses the record timestamp. The zero time is returned for
// sentinel or malformed timestamps.
func (r *Record) ObservedAt() time.Time {
	t, err := time.Parse(TimestampLayout, r.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
