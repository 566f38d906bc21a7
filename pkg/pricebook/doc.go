// Package pricebook converts raw usage quantities into credits, the abstract
// unit metered operations are billed in.
//
// The calculators are pure functions over a Rates value: deterministic, free
// of side effects, and tolerant of missing or malformed hints (unknown model
// names and quality tiers fall back to the cheapest rate instead of failing).
// Any strictly positive usage costs at least one credit so no operation rounds
// down to free.
//
// Keeping price computation out of the transactional charge path means pricing
// changes ship as configuration: Rates can be loaded from a YAML document via
// ParseRates/LoadRatesFile, with unspecified sections inheriting the built-in
// defaults.
//
//	rates, err := pricebook.LoadRatesFile("pricebook.yaml")
//	if err != nil {
//		rates = pricebook.DefaultRates()
//	}
//	credits := rates.TextGenerationCredits("gpt-4o", usage.InputTokens, usage.OutputTokens)
package pricebook
