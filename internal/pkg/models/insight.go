package models

// InsightReference is a grounding link attached to generated advisory text.
type InsightReference struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Insight is advisory text produced by the insight service. When the
// service is unavailable the text falls back to a fixed localized message
// and References stays empty.
type Insight struct {
	Text       string             `json:"text"`
	References []InsightReference `json:"references"`
}
