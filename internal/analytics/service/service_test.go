package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saptiva-ai/bankcopilot/internal/types"
)

func TestSegmentNameMapsKnownCode(t *testing.T) {
	assert.Equal(t, "Credito Automotriz", segmentName("automotriz"))
	assert.Equal(t, "Credito a Empresas", segmentName("EMPRESARIAL"))
}

func TestSegmentNameFallsBackToCodeWhenUnmapped(t *testing.T) {
	assert.Equal(t, "ALGO_RARO", segmentName("ALGO_RARO"))
}

func TestAverageByBankComputesPerBankMean(t *testing.T) {
	rows := []monthlyKPIRow{
		{BancoNorm: "INVEX", Value: 0.02},
		{BancoNorm: "INVEX", Value: 0.04},
		{BancoNorm: "SISTEMA", Value: 0.03},
	}
	avg := averageByBank(rows)
	assert.InDelta(t, 0.03, avg["INVEX"], 0.0001)
	assert.InDelta(t, 0.03, avg["SISTEMA"], 0.0001)
}

func TestRankingFromRowsSortsDescending(t *testing.T) {
	rows := []monthlyKPIRow{
		{BancoNorm: "A", Value: 0.01},
		{BancoNorm: "B", Value: 0.05},
		{BancoNorm: "C", Value: 0.03},
	}
	ranking := rankingFromRows(rows, true)
	assert.Equal(t, "B", ranking[0].Bank)
	assert.Equal(t, "A", ranking[2].Bank)
}

func TestRankingFromRowsSortsAscendingWhenLowerIsBetter(t *testing.T) {
	rows := []monthlyKPIRow{
		{BancoNorm: "A", Value: 0.01},
		{BancoNorm: "B", Value: 0.05},
		{BancoNorm: "C", Value: 0.03},
	}
	ranking := rankingFromRows(rows, false)
	assert.Equal(t, "A", ranking[0].Bank)
	assert.Equal(t, "B", ranking[2].Bank)
}

func TestRankingFromRowsComputesRealPerBankAggregates(t *testing.T) {
	rows := []monthlyKPIRow{
		{BancoNorm: "INVEX", Value: 0.02},
		{BancoNorm: "INVEX", Value: 0.04},
		{BancoNorm: "INVEX", Value: 0.06},
	}
	ranking := rankingFromRows(rows, true)
	assert.Len(t, ranking, 1)
	assert.InDelta(t, 4.0, ranking[0].Average, 0.0001)
	assert.InDelta(t, 6.0, ranking[0].Max, 0.0001)
	assert.InDelta(t, 2.0, ranking[0].Min, 0.0001)
	assert.Equal(t, 3, ranking[0].Count)
}

func TestNormalizeValueScalesRatioToPercentage(t *testing.T) {
	assert.InDelta(t, 3.5, normalizeValue(0.035, types.SemanticRatio), 0.0001)
}

func TestNormalizeValueLeavesCurrencyUnscaled(t *testing.T) {
	assert.InDelta(t, 1000.0, normalizeValue(1000.0, types.SemanticCurrencyMDP), 0.0001)
}
