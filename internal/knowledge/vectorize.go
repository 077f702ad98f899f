package knowledge

// VectorDoc is the neutral shape handed to an external embedding pipeline.
// No embedding computation happens here; this is a pure projection.
type VectorDoc struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata VectorMetadata `json:"metadata"`
}

// VectorMetadata bundles the block attributes an embedding store indexes
// alongside the text. JSON names keep the package wire vocabulary.
type VectorMetadata struct {
	Segment           string   `json:"segment"`
	Subcategory       string   `json:"subcategoria"`
	Complexity        string   `json:"nivel_complexidade"`
	Persona           string   `json:"persona_alvo"`
	Tags              []string `json:"tags"`
	EmbeddingPriority float64  `json:"embedding_priority"`
	RetrievalWeight   float64  `json:"retrieval_weight"`
	Regulatory        bool     `json:"regulatory_flag"`
	CrossReferences   []string `json:"cross_package_reference"`
	KnowledgeVersion  string   `json:"knowledge_version"`
}

// PrepareForVectorization projects every vector-ready block into a
// VectorDoc. Blocks with VectorReady false are excluded. Pass an empty
// segment to project over all loaded packages.
func (l *Loader) PrepareForVectorization(segment string) ([]VectorDoc, error) {
	src, err := l.source(segment)
	if err != nil {
		return nil, err
	}
	docs := make([]VectorDoc, 0)
	for _, b := range src {
		if !b.VectorReady {
			continue
		}
		docs = append(docs, VectorDoc{
			ID:   b.ID,
			Text: b.Content,
			Metadata: VectorMetadata{
				Segment:           b.MacroCategory,
				Subcategory:       b.Subcategory,
				Complexity:        string(b.Complexity),
				Persona:           b.Persona,
				Tags:              b.Tags,
				EmbeddingPriority: b.EmbeddingPriority,
				RetrievalWeight:   b.RetrievalWeight,
				Regulatory:        b.Regulatory,
				CrossReferences:   b.CrossReferences,
				KnowledgeVersion:  b.KnowledgeVersion,
			},
		})
	}
	return docs, nil
}
