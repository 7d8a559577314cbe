package intents

import (
	"maps"
	"strconv"

	"github.com/betbot/botdash/internal/domain"
)

// MergeParameters builds the complete parameter object for a PUT.
// Precedence: defaults < lastKnown < partial. A check_interval carried in partial
// is clamped to [60, 604800] seconds; values taken from lastKnown pass through as the server sent them.
// Inputs are not modified.
func MergeParameters(lastKnown, partial map[string]any) map[string]any {
	merged := domain.DefaultParameters()
	maps.Copy(merged, lastKnown)
	maps.Copy(merged, partial)

	if v, ok := partial[domain.ParamCheckInterval]; ok {
		if seconds, ok := toInt(v); ok {
			merged[domain.ParamCheckInterval] = ClampCheckInterval(seconds)
		}
	}
	return merged
}

// ClampCheckInterval clamps seconds to [60, 604800].
func ClampCheckInterval(seconds int) int {
	return domain.ClampInt(seconds, domain.MinCheckIntervalSeconds, domain.MaxCheckIntervalSeconds)
}

// CheckIntervalFromMinutes clamps to [1, 10080] minutes first, then converts to seconds.
func CheckIntervalFromMinutes(minutes int) int {
	return domain.ClampInt(minutes, domain.MinCheckIntervalMinutes, domain.MaxCheckIntervalMinutes) * 60
}

// CheckIntervalMinutes seconds -> whole minutes for display and editing.
func CheckIntervalMinutes(v any) int {
	seconds, ok := toInt(v)
	if !ok {
		seconds = domain.DefaultCheckInterval
	}
	return seconds / 60
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
