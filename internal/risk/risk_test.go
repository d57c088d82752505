package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucket_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  Level
	}{
		{1.0, LevelHigh},
		{0.85, LevelHigh},
		{0.8000001, LevelHigh},
		{0.8, LevelMedium},
		{0.61, LevelMedium},
		{0.6, LevelLow},
		{0.41, LevelLow},
		{0.4, LevelNone},
		{0.2, LevelNone},
		{0, LevelNone},
		{math.NaN(), LevelNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Bucket(tc.score), "Bucket(%v)", tc.score)
	}
}

func TestBucket_MonotonicOverUnitInterval(t *testing.T) {
	prev := Bucket(1.0)
	for i := 1000; i >= 0; i-- {
		score := float64(i) / 1000
		cur := Bucket(score)
		assert.LessOrEqual(t, cur.Rank(), prev.Rank(), "severity rose at %v", score)
		prev = cur
	}
}

func TestLevelColor(t *testing.T) {
	assert.Equal(t, "danger", LevelHigh.Color())
	assert.Equal(t, "warning", LevelMedium.Color())
	assert.Equal(t, "info", LevelLow.Color())
	assert.Equal(t, "success", LevelNone.Color())
}

func TestSuspicious(t *testing.T) {
	assert.True(t, Suspicious(0.71))
	assert.False(t, Suspicious(0.7))
	assert.False(t, Suspicious(0))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "85.0%", Percent(0.85))
	assert.Equal(t, "12.3%", Percent(0.1234))
	assert.Equal(t, "0.0%", Percent(math.NaN()))
}

func TestFlagLevel(t *testing.T) {
	assert.Equal(t, LevelLow, FlagLevel(0))
	assert.Equal(t, LevelLow, FlagLevel(1))
	assert.Equal(t, LevelMedium, FlagLevel(2))
	assert.Equal(t, LevelMedium, FlagLevel(3))
	assert.Equal(t, LevelHigh, FlagLevel(4))
}

func TestClassifyAction(t *testing.T) {
	cases := map[string]Category{
		"LOGIN":              CategoryLogin,
		"user_logout":        CategoryLogout,
		"File Download":      CategoryDownload,
		"upload_report":      CategoryUpload,
		"DELETE_RECORD":      CategoryDelete,
		"modify-permissions": CategoryModify,
		"access_denied":      CategoryAccess,
		"heartbeat":          CategoryOther,
		"":                   CategoryOther,
	}
	for in, want := range cases {
		assert.Equal(t, want, ClassifyAction(in), "ClassifyAction(%q)", in)
	}
	assert.Equal(t, "danger", CategoryDelete.Color())
	assert.Equal(t, "default", CategoryOther.Color())
	assert.Equal(t, "🔐", CategoryLogin.Icon())
}
