package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fieldAliases maps each canonical field to the legacy spellings used by
// older producer versions. The canonical key always wins when both are
// present. Extend this table when a new producer variant appears; no other
// code branches on producer version.
var fieldAliases = map[string][]string{
	"tray_name":          {"tray", "name"},
	"growth_percent":     {"growth"},
	"health":             {"health_score", "health_status"},
	"days_since_sowing":  {"days"},
	"est_harvest":        {"estimated_harvest", "harvest"},
	"environment_flags":  {"flags"},
	"recommended_action": {"action"},
}

// Normalize maps an arbitrary inbound payload onto a Record. Fields absent
// under every accepted spelling are filled with the sentinel; the timestamp
// is assigned from the injected clock when the payload carries none. The
// mapping is pure apart from that single clock read.
func Normalize(payload map[string]any, source Source, now func() time.Time) Record {
	_ = source // all channels share one field contract once aliases resolve

	lookup := func(key string) string {
		if v, ok := payload[key]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
		for _, alias := range fieldAliases[key] {
			if v, ok := payload[alias]; ok {
				if s := stringify(v); s != "" {
					return s
				}
			}
		}
		return Sentinel
	}

	rec := Record{
		TrayName:          lookup("tray_name"),
		SeedType:          lookup("seed_type"),
		GrowthPercent:     lookup("growth_percent"),
		Health:            lookup("health"),
		DaysSinceSowing:   lookup("days_since_sowing"),
		EstHarvest:        lookup("est_harvest"),
		LightingStage:     lookup("lighting_stage"),
		MistLevel:         lookup("mist_level"),
		Notes:             lookup("notes"),
		RecommendedAction: lookup("recommended_action"),
		EnvironmentFlags:  lookup("environment_flags"),
		Timestamp:         lookup("timestamp"),
	}

	if rec.Timestamp == Sentinel {
		rec.Timestamp = now().Format(TimestampLayout)
	}

	return rec
}

// stringify renders a payload value as a cell string. Numbers keep their
// shortest decimal form; unparseable values pass through verbatim because
// the store is permissive.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
