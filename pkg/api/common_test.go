package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var req OrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"shipping_date":"2026-03-15"}`), &req))
	require.NotNil(t, req.ShippingDate)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), req.ShippingDate.Time)

	out, err := json.Marshal(struct {
		D Date `json:"d"`
	}{D: NewDate(time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2026-03-15"}`, string(out))
}

func TestDate_JSONInvalid(t *testing.T) {
	var req OrderRequest
	err := json.Unmarshal([]byte(`{"shipping_date":"15/03/2026"}`), &req)
	assert.Error(t, err)
}

func TestDate_ZeroIsNull(t *testing.T) {
	out, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
}
