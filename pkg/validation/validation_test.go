package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrCollectsFields(t *testing.T) {
	var v Error
	require.NoError(t, v.Err())

	v.Add("building_insured", "exceeds_appraisal", "too high")
	v.Add("machinery_insured", "exceeds_appraisal", "too high")

	err := fmt.Errorf("create quotation: %w", v.Err())
	got, ok := As(err)
	require.True(t, ok)
	assert.Len(t, got.Fields, 2)
	assert.True(t, got.Has("machinery_insured"))
	assert.False(t, got.Has("vehicle_insured"))
	assert.Contains(t, err.Error(), "building_insured: exceeds_appraisal")
}

func TestRequired(t *testing.T) {
	got, ok := As(Required("name"))
	require.True(t, ok)
	assert.Equal(t, "required", got.Fields[0].Code)
}
