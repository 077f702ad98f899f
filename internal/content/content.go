// Package content defines the unit of incoming material moving through the
// ingestion pipeline: scraped or hand-written items that are normalized,
// delta-checked, and staged for review.
package content

// Item is one incoming content item. The wire shape matches the legacy raw
// content files: Content is the primary text field, Text a fallback used by
// older producers.
type Item struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Text     string         `json:"text,omitempty"`
	Segment  string         `json:"segment"`
	Category string         `json:"category,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Source   string         `json:"source,omitempty"`
	Language string         `json:"language,omitempty"`
	Encoding string         `json:"encoding,omitempty"`
}

// Body returns the item's main text, preferring Content over Text.
func (i Item) Body() string {
	if i.Content != "" {
		return i.Content
	}
	return i.Text
}
