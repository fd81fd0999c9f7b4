// Package thesis maintains per-company research files: a baseline deep-dive,
// dated update summaries, and machine-readable price targets.
package thesis

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipodigest/internal/llm"
)

// KeyMetric is one metric the thesis tracks toward its targets.
type KeyMetric struct {
	Metric       string `json:"metric"`
	CurrentValue string `json:"current_value"`
	Target       string `json:"target"`
}

// WatchItem is one upcoming event worth monitoring.
type WatchItem struct {
	Event        string `json:"event"`
	ExpectedDate string `json:"expected_date"`
	Importance   string `json:"importance"`
}

// Targets holds the price targets extracted from a thesis response.
type Targets struct {
	BaseTarget        float64           `json:"base_target"`
	BullTarget        float64           `json:"bull_target"`
	BearTarget        float64           `json:"bear_target"`
	TargetRationale   map[string]string `json:"target_rationale,omitempty"`
	TargetChanges     map[string]string `json:"target_changes,omitempty"`
	CurrentPrice      *float64          `json:"current_price,omitempty"`
	EntryPrice        *float64          `json:"entry_price,omitempty"`
	TargetReached     bool              `json:"target_reached,omitempty"`
	ProgressToBase    *float64          `json:"progress_to_base,omitempty"`
	KeyMetrics        []KeyMetric       `json:"key_metrics,omitempty"`
	Watchlist         []WatchItem       `json:"watchlist,omitempty"`
	InvestmentHorizon string            `json:"investment_horizon,omitempty"`
	RiskLevel         string            `json:"risk_level,omitempty"`
	LastUpdated       string            `json:"last_updated,omitempty"`
	UpdatedBy         string            `json:"updated_by,omitempty"`
}

// ParseTargets pulls the price target block out of a thesis response. All
// three targets at zero means the model skipped the block or the parse went
// wrong; such results are rejected rather than stored.
func ParseTargets(text string, logger arbor.ILogger) *Targets {
	data, ok := llm.ExtractJSONBlock(text).(map[string]interface{})
	if !ok {
		logger.Warn().Msg("No JSON targets block found in response")
		return nil
	}

	targets := &Targets{
		BaseTarget:        numberValue(data["base_target"]),
		BullTarget:        numberValue(data["bull_target"]),
		BearTarget:        numberValue(data["bear_target"]),
		TargetRationale:   stringMap(data["target_rationale"]),
		TargetChanges:     stringMap(data["target_changes"]),
		InvestmentHorizon: stringValue(data["investment_horizon"]),
		RiskLevel:         stringValue(data["risk_level"]),
	}
	if targets.BaseTarget == 0 && targets.BullTarget == 0 && targets.BearTarget == 0 {
		logger.Warn().Msg("All targets are zero, rejecting targets block")
		return nil
	}

	decodeInto(data["key_metrics"], &targets.KeyMetrics)
	decodeInto(data["watchlist"], &targets.Watchlist)
	return targets
}

// numberValue coerces a JSON number or numeric string into a float, treating
// anything else as zero.
func numberValue(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v, "$", "")), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func stringValue(value interface{}) string {
	s, _ := value.(string)
	return s
}

func stringMap(value interface{}) map[string]string {
	raw, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	result := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			result[k] = s
		}
	}
	return result
}

// decodeInto re-marshals a loosely-typed fragment into a typed slice,
// silently dropping malformed entries.
func decodeInto(value interface{}, target interface{}) {
	if value == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, target)
}
