package datatypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input string
		want  Priority
		ok    bool
	}{
		{"low", PriorityLow, true},
		{"medium", PriorityMedium, true},
		{"high", PriorityHigh, true},
		{"urgent", PriorityUrgent, true},
		{"URGENT", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePriority(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriorityFromLevel(t *testing.T) {
	p, err := PriorityFromLevel(4)
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)

	_, err = PriorityFromLevel(0)
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = PriorityFromLevel(5)
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestPriority_JSON(t *testing.T) {
	type wrapper struct {
		Priority Priority `json:"priority"`
	}

	out, err := json.Marshal(wrapper{Priority: PriorityHigh})
	require.NoError(t, err)
	assert.JSONEq(t, `{"priority":"high"}`, string(out))

	var in wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"priority":"urgent"}`), &in))
	assert.Equal(t, PriorityUrgent, in.Priority)

	err = json.Unmarshal([]byte(`{"priority":"critical"}`), &in)
	assert.Error(t, err)
}

func TestSource_IsValid(t *testing.T) {
	for _, s := range AllSources() {
		assert.True(t, Source(s).IsValid(), s)
	}

	assert.False(t, Source("myspace").IsValid())
}
