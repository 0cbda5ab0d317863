package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateUnmarshalLayouts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"date only", `"2024-01-01"`, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", `"2024-01-01T10:30:00Z"`, time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"offset", `"2024-01-01T10:30:00+02:00"`, time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC)},
		{"no zone", `"2024-03-05T07:08:09"`, time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, json.Unmarshal([]byte(tt.input), &d))
			assert.True(t, tt.want.Equal(d.Time), "got %v", d.Time)
		})
	}
}

func TestDateUnmarshalEmpty(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
}

func TestDateUnmarshalInvalid(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20240101`), &d))
}

func TestDateMarshal(t *testing.T) {
	out, err := json.Marshal(NewDate(2024, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-01T00:00:00Z"`, string(out))

	out, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(out))
}

func TestUserPasswordHashNotSerialized(t *testing.T) {
	out, err := json.Marshal(User{ID: 1, Username: "alice", Email: "a@x.com", PasswordHash: "secret-hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret-hash")
	assert.NotContains(t, string(out), "password")
}
