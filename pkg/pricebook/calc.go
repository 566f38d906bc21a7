package pricebook

import (
	"math"
	"strings"
)

const (
	// transcriptionBytesPerSecond assumes a 128 kbps audio stream when the
	// true duration of a base64 payload is unknown.
	transcriptionBytesPerSecond = 16000

	// maxTranscriptionSeconds caps duration estimates at three hours to keep
	// pathological payloads from producing absurd charges.
	maxTranscriptionSeconds = 3 * 60 * 60
)

// premiumModelMarkers selects the premium text rate by model-name substring.
// Anything unrecognized is billed at the standard (cheapest) rate.
var premiumModelMarkers = []string{"gpt-4", "opus", "large"}

// TextGenerationCredits converts input/output token counts into credits.
// The rate is selected by a model-name heuristic; unknown models use the
// standard rate. Negative token counts are treated as zero.
func (r Rates) TextGenerationCredits(model string, inputTokens, outputTokens int64) int64 {
	rates := r.Text.Standard
	if isPremiumModel(model) {
		rates = r.Text.Premium
	}

	in := float64(max(inputTokens, 0))
	out := float64(max(outputTokens, 0))
	if in == 0 && out == 0 {
		return 0
	}

	return atLeastOne(in/1000*rates.InputPer1K + out/1000*rates.OutputPer1K)
}

// ImageGenerationCredits converts an image count and quality hint into
// credits. Unrecognized quality strings fall back to the low tier rather
// than failing the charge path.
func (r Rates) ImageGenerationCredits(quality string, count int64) int64 {
	if count <= 0 {
		return 0
	}

	rate := r.Image.Low
	switch strings.ToLower(strings.TrimSpace(quality)) {
	case "medium":
		rate = r.Image.Medium
	case "high":
		rate = r.Image.High
	}

	return atLeastOne(float64(count) * rate)
}

// VideoGenerationCredits converts generated video seconds into credits.
// Models whose name contains "pro" are billed at the higher pro rate.
func (r Rates) VideoGenerationCredits(model string, seconds float64) int64 {
	if !(seconds > 0) { // also rejects NaN
		return 0
	}

	rate := r.Video.PerSecond
	if strings.Contains(strings.ToLower(model), "pro") {
		rate = r.Video.ProPerSecond
	}

	return atLeastOne(seconds * rate)
}

// TranscriptionCreditsFromSeconds converts audio duration into credits at
// the per-minute rate.
func (r Rates) TranscriptionCreditsFromSeconds(seconds float64) int64 {
	if !(seconds > 0) {
		return 0
	}
	if seconds > maxTranscriptionSeconds {
		seconds = maxTranscriptionSeconds
	}
	return atLeastOne(seconds / 60 * r.Audio.PerMinute)
}

// TranscriptionCreditsFromBase64 estimates the duration of a base64 audio
// payload assuming a fixed bitrate, then prices it per minute. Used when the
// true duration is unknown at charge time.
func (r Rates) TranscriptionCreditsFromBase64(payloadLen int) int64 {
	if payloadLen <= 0 {
		return 0
	}
	decodedBytes := float64(payloadLen) * 3 / 4
	return r.TranscriptionCreditsFromSeconds(decodedBytes / transcriptionBytesPerSecond)
}

// MemoryIndexingCredits prices a vector memory write: a token-based write
// cost, a flat per-write cost, and one month of storage for the embedding
// plus text payload.
func (r Rates) MemoryIndexingCredits(tokens, payloadBytes int64) int64 {
	if tokens <= 0 && payloadBytes <= 0 {
		return 0
	}

	writeCost := float64(max(tokens, 0)) / 1000 * r.Memory.WritePer1KTokens
	storageCost := float64(max(payloadBytes, 0)) / (1 << 20) * r.Memory.StoragePerMBMonth

	return atLeastOne(writeCost + storageCost + r.Memory.PerWrite)
}

func isPremiumModel(model string) bool {
	model = strings.ToLower(model)
	for _, marker := range premiumModelMarkers {
		if strings.Contains(model, marker) {
			return true
		}
	}
	return false
}

// atLeastOne rounds a positive-usage cost up to a whole credit with a floor
// of one, so no metered operation ever rounds to free.
func atLeastOne(cost float64) int64 {
	if math.IsNaN(cost) || math.IsInf(cost, 0) || cost <= 0 {
		return 1
	}
	credits := int64(math.Ceil(cost))
	if credits < 1 {
		return 1
	}
	return credits
}
