package pricebook

// TextRates holds per-1000-token prices for text generation.
// Input and output tokens are priced separately because providers bill
// them at different rates.
type TextRates struct {
	InputPer1K  float64 `yaml:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k"`
}

// ImageRates holds per-image prices keyed by quality tier.
type ImageRates struct {
	Low    float64 `yaml:"low"`
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
}

// VideoRates holds per-second prices for video generation.
type VideoRates struct {
	PerSecond    float64 `yaml:"per_second"`
	ProPerSecond float64 `yaml:"pro_per_second"`
}

// AudioRates holds the per-minute price for transcription.
type AudioRates struct {
	PerMinute float64 `yaml:"per_minute"`
}

// MemoryRates prices vector memory indexing: a token-based write cost,
// a flat per-write unit cost, and a monthly storage cost for the stored
// embedding and text payload.
type MemoryRates struct {
	WritePer1KTokens  float64 `yaml:"write_per_1k_tokens"`
	PerWrite          float64 `yaml:"per_write"`
	StoragePerMBMonth float64 `yaml:"storage_per_mb_month"`
}

// Rates is the complete pricebook. All prices are expressed in credits,
// the abstract unit every metered operation is converted into before
// debiting a balance.
type Rates struct {
	Text struct {
		Standard TextRates `yaml:"standard"`
		Premium  TextRates `yaml:"premium"`
	} `yaml:"text"`
	Image  ImageRates  `yaml:"image"`
	Video  VideoRates  `yaml:"video"`
	Audio  AudioRates  `yaml:"audio"`
	Memory MemoryRates `yaml:"memory"`
}

// DefaultRates returns the built-in pricebook used when no external rates
// document is supplied.
func DefaultRates() Rates {
	var r Rates
	r.Text.Standard = TextRates{InputPer1K: 1, OutputPer1K: 2}
	r.Text.Premium = TextRates{InputPer1K: 5, OutputPer1K: 10}
	r.Image = ImageRates{Low: 4, Medium: 8, High: 16}
	r.Video = VideoRates{PerSecond: 10, ProPerSecond: 30}
	r.Audio = AudioRates{PerMinute: 2}
	r.Memory = MemoryRates{WritePer1KTokens: 1, PerWrite: 1, StoragePerMBMonth: 2}
	return r
}
