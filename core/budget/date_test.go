package budget

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Date
		wantErr bool
	}{
		{name: "valid", in: "2025-01-01", want: Date{2025, time.January, 1}},
		{name: "padded", in: " 2024-02-29 ", want: Date{2024, time.February, 29}},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "hello", wantErr: true},
		{name: "br format", in: "01/02/2025", wantErr: true},
		{name: "feb 30", in: "2025-02-30", wantErr: true},
		{name: "non leap", in: "2025-02-29", wantErr: true},
		{name: "year zero", in: "0000-01-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				var dateErr *InvalidDateError
				assert.ErrorAs(t, err, &dateErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_AddMonths(t *testing.T) {
	tests := []struct {
		name string
		d    Date
		n    int
		want Date
	}{
		{name: "same month", d: Date{2025, time.April, 1}, n: 0, want: Date{2025, time.April, 1}},
		{name: "carry", d: Date{2025, time.December, 15}, n: 1, want: Date{2026, time.January, 15}},
		{name: "two years", d: Date{2025, time.April, 1}, n: 23, want: Date{2027, time.March, 1}},
		{name: "clamp", d: Date{2025, time.January, 31}, n: 1, want: Date{2025, time.February, 28}},
		{name: "clamp leap", d: Date{2024, time.January, 31}, n: 1, want: Date{2024, time.February, 29}},
		{name: "backwards", d: Date{2025, time.January, 10}, n: -1, want: Date{2024, time.December, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.AddMonths(tt.n))
		})
	}
}

func TestDate_AddDays(t *testing.T) {
	d := Date{2025, time.January, 1}
	assert.Equal(t, Date{2025, time.January, 31}, d.AddDays(30))
	assert.Equal(t, Date{2025, time.March, 2}, d.AddDays(60))
	assert.Equal(t, Date{2025, time.April, 1}, d.AddDays(90))
	assert.Equal(t, Date{2026, time.January, 1}, Date{2025, time.December, 31}.AddDays(1))
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2025-03-02"}`), &v))
	assert.Equal(t, Date{2025, time.March, 2}, v.D)
	assert.Equal(t, "02/03/2025", v.D.Format())

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2025-03-02"}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`{"d":"2025-13-01"}`), &v))
}
