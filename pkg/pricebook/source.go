package pricebook

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseRates decodes a YAML rates document on top of the default pricebook,
// so a partial document only overrides the sections it names. Every price in
// the resulting pricebook must be non-negative.
func ParseRates(data []byte) (Rates, error) {
	rates := DefaultRates()
	if err := yaml.Unmarshal(data, &rates); err != nil {
		return Rates{}, errors.Join(ErrInvalidRatesDocument, err)
	}
	if err := rates.Validate(); err != nil {
		return Rates{}, err
	}
	return rates, nil
}

// LoadRates reads and parses a YAML rates document from r.
func LoadRates(r io.Reader) (Rates, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Rates{}, errors.Join(ErrInvalidRatesDocument, err)
	}
	return ParseRates(data)
}

// LoadRatesFile reads and parses a YAML rates document from disk.
func LoadRatesFile(path string) (Rates, error) {
	f, err := os.Open(path)
	if err != nil {
		return Rates{}, errors.Join(ErrInvalidRatesDocument, err)
	}
	defer f.Close()
	return LoadRates(f)
}

// Validate rejects pricebooks containing negative prices. Zero prices are
// allowed: the calculators floor positive usage at one credit regardless.
func (r Rates) Validate() error {
	prices := []float64{
		r.Text.Standard.InputPer1K, r.Text.Standard.OutputPer1K,
		r.Text.Premium.InputPer1K, r.Text.Premium.OutputPer1K,
		r.Image.Low, r.Image.Medium, r.Image.High,
		r.Video.PerSecond, r.Video.ProPerSecond,
		r.Audio.PerMinute,
		r.Memory.WritePer1KTokens, r.Memory.PerWrite, r.Memory.StoragePerMBMonth,
	}
	for _, p := range prices {
		if p < 0 {
			return ErrNegativeRate
		}
	}
	return nil
}
