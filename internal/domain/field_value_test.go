package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValueMarshalScalars(t *testing.T) {
	fields := map[string]FieldValue{
		"assetTag":  StringValue("LT-4411"),
		"ramGb":     NumberValue(16),
		"encrypted": BoolValue(true),
	}

	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.JSONEq(t, `{"assetTag":"LT-4411","ramGb":16,"encrypted":true}`, string(raw))
}

func TestFieldValueMarshalDate(t *testing.T) {
	purchased := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	raw, err := json.Marshal(DateValue(purchased))
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T09:30:00Z"`, string(raw))
}

func TestFieldValueUnmarshalInfersVariants(t *testing.T) {
	var fields map[string]FieldValue
	payload := `{"serial":"SN-1","count":3,"vpn":false,"renewedAt":"2024-03-01T09:30:00Z"}`
	require.NoError(t, json.Unmarshal([]byte(payload), &fields))

	assert.Equal(t, FieldKindString, fields["serial"].Kind)
	assert.Equal(t, "SN-1", fields["serial"].Str)

	assert.Equal(t, FieldKindNumber, fields["count"].Kind)
	assert.Equal(t, float64(3), fields["count"].Num)

	assert.Equal(t, FieldKindBool, fields["vpn"].Kind)
	assert.False(t, fields["vpn"].Bool)

	assert.Equal(t, FieldKindDate, fields["renewedAt"].Kind)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), fields["renewedAt"].Date)
}

func TestFieldValueUnmarshalRejectsCompositeValues(t *testing.T) {
	var v FieldValue
	assert.Error(t, json.Unmarshal([]byte(`["a","b"]`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"nested":true}`), &v))
}
