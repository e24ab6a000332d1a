package entity

// ConversionRequest asks for Amount of From to be expressed in To
type ConversionRequest struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
}

// ConversionResult holds the unrounded outcome of a conversion
type ConversionResult struct {
	ConvertedAmount float64 `json:"converted_amount"`
	EffectiveRate   float64 `json:"effective_rate"`
}
