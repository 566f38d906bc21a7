package pricebook_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/pricebook"
)

func TestTextGenerationCredits(t *testing.T) {
	t.Parallel()

	rates := pricebook.DefaultRates()

	t.Run("standard model", func(t *testing.T) {
		t.Parallel()
		// 2000 in * 1/1k + 1000 out * 2/1k = 4
		assert.Equal(t, int64(4), rates.TextGenerationCredits("gpt-4o-mini-ish", 2000, 1000))
	})

	t.Run("premium model by substring", func(t *testing.T) {
		t.Parallel()
		// 2000 in * 5/1k + 1000 out * 10/1k = 20
		assert.Equal(t, int64(20), rates.TextGenerationCredits("claude-opus-x", 2000, 1000))
	})

	t.Run("zero usage is free", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, int64(0), rates.TextGenerationCredits("anything", 0, 0))
	})

	t.Run("tiny usage floors at one credit", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, int64(1), rates.TextGenerationCredits("mini", 1, 0))
	})

	t.Run("negative tokens treated as zero", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, int64(0), rates.TextGenerationCredits("mini", -500, -500))
		assert.Equal(t, int64(2), rates.TextGenerationCredits("mini", -500, 1000))
	})

	t.Run("unknown model uses cheapest rate", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t,
			rates.TextGenerationCredits("totally-unknown", 1000, 1000),
			rates.TextGenerationCredits("", 1000, 1000))
	})
}

func TestImageGenerationCredits(t *testing.T) {
	t.Parallel()

	rates := pricebook.DefaultRates()

	tests := []struct {
		quality string
		count   int64
		want    int64
	}{
		{"low", 1, 4},
		{"medium", 1, 8},
		{"high", 2, 32},
		{"HIGH", 1, 16},      // case-insensitive
		{"ultra", 1, 4},      // unrecognized falls back to low
		{"", 3, 12},          // missing hint falls back to low
		{"  medium  ", 1, 8}, // whitespace tolerated
		{"high", 0, 0},       // no usage, no charge
		{"high", -1, 0},      // negative usage, no charge
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rates.ImageGenerationCredits(tt.quality, tt.count),
			"quality=%q count=%d", tt.quality, tt.count)
	}
}

func TestVideoGenerationCredits(t *testing.T) {
	t.Parallel()

	rates := pricebook.DefaultRates()

	assert.Equal(t, int64(50), rates.VideoGenerationCredits("veo-basic", 5))
	assert.Equal(t, int64(150), rates.VideoGenerationCredits("veo-pro", 5))
	assert.Equal(t, int64(0), rates.VideoGenerationCredits("veo-pro", 0))
	assert.Equal(t, int64(0), rates.VideoGenerationCredits("veo-pro", -3))
	assert.Equal(t, int64(0), rates.VideoGenerationCredits("veo", math.NaN()))

	// Fractional seconds round up.
	assert.Equal(t, int64(5), rates.VideoGenerationCredits("veo", 0.5))
}

func TestTranscriptionCreditsFromSeconds(t *testing.T) {
	t.Parallel()

	rates := pricebook.DefaultRates()

	// 90 seconds at R credits/minute must equal ceil(1.5 * R).
	r := rates.Audio.PerMinute
	want := int64(math.Ceil(1.5 * r))
	assert.Equal(t, want, rates.TranscriptionCreditsFromSeconds(90))

	t.Run("minimum one credit even at zero rate", func(t *testing.T) {
		t.Parallel()
		free := pricebook.DefaultRates()
		free.Audio.PerMinute = 0
		assert.Equal(t, int64(1), free.TranscriptionCreditsFromSeconds(90))
	})

	t.Run("duration capped at three hours", func(t *testing.T) {
		t.Parallel()
		capped := rates.TranscriptionCreditsFromSeconds(3 * 60 * 60)
		assert.Equal(t, capped, rates.TranscriptionCreditsFromSeconds(500_000))
	})

	assert.Equal(t, int64(0), rates.TranscriptionCreditsFromSeconds(0))
	assert.Equal(t, int64(0), rates.TranscriptionCreditsFromSeconds(-10))
	assert.Equal(t, int64(0), rates.TranscriptionCreditsFromSeconds(math.NaN()))
}

func TestTranscriptionCreditsFromBase64(t *testing.T) {
	t.Parallel()

	rates := pricebook.DefaultRates()

	// ~16000 decoded bytes/second at 128kbps; one minute of audio is about
	// 1.28M base64 characters. The estimate must land on the per-minute rate.
	oneMinutePayload := 16000 * 60 * 4 / 3
	assert.Equal(t, int64(2), rates.TranscriptionCreditsFromBase64(oneMinutePayload))

	assert.Equal(t, int64(0), rates.TranscriptionCreditsFromBase64(0))
	assert.Equal(t, int64(0), rates.TranscriptionCreditsFromBase64(-5))

	// Tiny payloads still cost one credit.
	assert.Equal(t, int64(1), rates.TranscriptionCreditsFromBase64(100))
}

func TestMemoryIndexingCredits(t *testing.T) {
	t.Parallel()

	rates := pricebook.DefaultRates()

	// 2000 tokens * 1/1k + 1MB * 2 + 1 per-write = 5
	assert.Equal(t, int64(5), rates.MemoryIndexingCredits(2000, 1<<20))

	assert.Equal(t, int64(0), rates.MemoryIndexingCredits(0, 0))
	assert.Equal(t, int64(0), rates.MemoryIndexingCredits(-1, -1))

	// Any positive usage includes the per-write unit and floors at one.
	assert.GreaterOrEqual(t, rates.MemoryIndexingCredits(1, 0), int64(1))
	assert.GreaterOrEqual(t, rates.MemoryIndexingCredits(0, 1), int64(1))
}

func TestCalculatorsNeverNegative(t *testing.T) {
	t.Parallel()

	rates := pricebook.DefaultRates()

	inputs := []struct {
		model   string
		in, out int64
	}{
		{"", math.MinInt64, math.MinInt64},
		{"opus", math.MaxInt64 / 2, 0},
		{"\x00garbage\xff", 10, 10},
	}

	for _, in := range inputs {
		got := rates.TextGenerationCredits(in.model, in.in, in.out)
		require.GreaterOrEqual(t, got, int64(0))
	}
}

func TestParseRates(t *testing.T) {
	t.Parallel()

	t.Run("partial document inherits defaults", func(t *testing.T) {
		t.Parallel()

		rates, err := pricebook.ParseRates([]byte("audio:\n  per_minute: 7\n"))
		require.NoError(t, err)

		assert.Equal(t, float64(7), rates.Audio.PerMinute)
		assert.Equal(t, pricebook.DefaultRates().Image, rates.Image)
	})

	t.Run("negative rate rejected", func(t *testing.T) {
		t.Parallel()

		_, err := pricebook.ParseRates([]byte("video:\n  per_second: -1\n"))
		require.ErrorIs(t, err, pricebook.ErrNegativeRate)
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		t.Parallel()

		_, err := pricebook.ParseRates([]byte("{{not yaml"))
		require.ErrorIs(t, err, pricebook.ErrInvalidRatesDocument)
	})
}
