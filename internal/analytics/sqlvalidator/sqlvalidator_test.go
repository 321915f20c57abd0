package sqlvalidator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsSimpleSelect(t *testing.T) {
	v := New(nil)
	result := v.Validate(context.Background(), "SELECT bank, imor FROM monthly_kpis WHERE bank = 'INVEX'")
	require.True(t, result.Valid)
	assert.Contains(t, result.SanitizedSQL, "LIMIT 1000")
}

func TestValidateRejectsForbiddenKeyword(t *testing.T) {
	v := New(nil)
	result := v.Validate(context.Background(), "DROP TABLE monthly_kpis")
	require.False(t, result.Valid)
	assert.Contains(t, result.ErrorMessage, "forbidden keyword")
}

func TestValidateRejectsNonSelect(t *testing.T) {
	v := New(nil)
	result := v.Validate(context.Background(), "UPDATE monthly_kpis SET imor = 0")
	require.False(t, result.Valid)
}

func TestValidateRejectsDisallowedTable(t *testing.T) {
	v := New([]string{"monthly_kpis"})
	result := v.Validate(context.Background(), "SELECT * FROM pg_shadow")
	require.False(t, result.Valid)
	assert.Contains(t, result.ErrorMessage, "invalid tables")
}

func TestValidateRejectsCTE(t *testing.T) {
	v := New(nil)
	result := v.Validate(context.Background(), "WITH x AS (SELECT 1) SELECT * FROM monthly_kpis")
	require.False(t, result.Valid)
}

func TestValidateRejectsSubqueryInFrom(t *testing.T) {
	v := New(nil)
	result := v.Validate(context.Background(), "SELECT * FROM (SELECT * FROM monthly_kpis) sub")
	require.False(t, result.Valid)
}

func TestValidateDoesNotDoubleLimitAggregated(t *testing.T) {
	v := New(nil)
	result := v.Validate(context.Background(), "SELECT bank, AVG(imor) FROM monthly_kpis GROUP BY bank")
	require.True(t, result.Valid)
	assert.NotContains(t, result.SanitizedSQL, "LIMIT")
}

func TestValidatePreservesExistingLimit(t *testing.T) {
	v := New(nil)
	result := v.Validate(context.Background(), "SELECT * FROM monthly_kpis LIMIT 5")
	require.True(t, result.Valid)
	assert.Contains(t, result.SanitizedSQL, "LIMIT 5")
}

func TestValidateRejectsUnionInjection(t *testing.T) {
	v := New(nil)
	result := v.Validate(context.Background(), "SELECT imor FROM monthly_kpis UNION SELECT password FROM users")
	require.False(t, result.Valid)
}

func TestValidateRejectsDisallowedFunction(t *testing.T) {
	v := New(nil)
	result := v.Validate(context.Background(), "SELECT pg_read_file('/etc/passwd') FROM monthly_kpis")
	require.False(t, result.Valid)
}
