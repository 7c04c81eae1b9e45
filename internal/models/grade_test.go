package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreUnmarshal_Number(t *testing.T) {
	var s Score
	require.NoError(t, json.Unmarshal([]byte(`87.5`), &s))
	assert.Equal(t, 87.5, s.Float64())
}

func TestScoreUnmarshal_NumericString(t *testing.T) {
	var s Score
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &s))
	assert.Equal(t, 42.0, s.Float64())
}

func TestScoreUnmarshal_Rejections(t *testing.T) {
	cases := map[string]string{
		"non-numeric string": `"abc"`,
		"null":               `null`,
		"empty string":       `""`,
		"boolean":            `true`,
		"infinity":           `"Inf"`,
		"nan":                `"NaN"`,
		"object":             `{"value": 5}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			var s Score
			assert.Error(t, json.Unmarshal([]byte(payload), &s))
		})
	}
}

func TestScoreUnmarshal_InsideStruct(t *testing.T) {
	var payload struct {
		Score *Score `json:"score"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"score": "73.25"}`), &payload))
	require.NotNil(t, payload.Score)
	assert.Equal(t, 73.25, payload.Score.Float64())

	assert.Error(t, json.Unmarshal([]byte(`{"score": "seventy"}`), &payload))
}

func TestGradeItemTypeValid(t *testing.T) {
	assert.True(t, GradeItemQuiz.Valid())
	assert.True(t, GradeItemFinal.Valid())
	assert.False(t, GradeItemType("POP_QUIZ").Valid())
}

func TestAttendanceStatusValid(t *testing.T) {
	assert.True(t, AttendancePresent.Valid())
	assert.True(t, AttendanceExcused.Valid())
	assert.False(t, AttendanceStatus("SKIPPED").Valid())
}
