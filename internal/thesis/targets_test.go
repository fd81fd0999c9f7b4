package thesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestParseTargets(t *testing.T) {
	text := `The thesis concludes here.

{
  "base_target": 30.0,
  "bull_target": "55",
  "bear_target": 12,
  "target_rationale": {"base": "peer multiples", "bull": "category winner"},
  "key_metrics": [{"metric": "Revenue growth", "current_value": "40%", "target": "50%"}],
  "watchlist": [{"event": "Lockup expiry", "expected_date": "2027-02-15", "importance": "high"}],
  "investment_horizon": "2-3 years",
  "risk_level": "high"
}`

	targets := ParseTargets(text, arbor.NewLogger())

	require.NotNil(t, targets)
	assert.Equal(t, 30.0, targets.BaseTarget)
	assert.Equal(t, 55.0, targets.BullTarget, "numeric strings are coerced")
	assert.Equal(t, 12.0, targets.BearTarget)
	assert.Equal(t, "peer multiples", targets.TargetRationale["base"])
	require.Len(t, targets.KeyMetrics, 1)
	assert.Equal(t, "Revenue growth", targets.KeyMetrics[0].Metric)
	require.Len(t, targets.Watchlist, 1)
	assert.Equal(t, "high", targets.Watchlist[0].Importance)
	assert.Equal(t, "2-3 years", targets.InvestmentHorizon)
}

func TestParseTargets_AllZeroRejected(t *testing.T) {
	text := `{"base_target": 0, "bull_target": 0, "bear_target": 0}`

	assert.Nil(t, ParseTargets(text, arbor.NewLogger()))
}

func TestParseTargets_NoJSONBlock(t *testing.T) {
	assert.Nil(t, ParseTargets("No structured targets in this response.", arbor.NewLogger()))
}

func TestParseTargets_UnparseablePricesTreatedAsZero(t *testing.T) {
	text := `{"base_target": "around thirty", "bull_target": 0, "bear_target": 0}`

	assert.Nil(t, ParseTargets(text, arbor.NewLogger()))
}
