package knowledge

import (
	"fmt"
	"strings"
)

// Complexity is the difficulty level of a knowledge block.
type Complexity string

const (
	ComplexityBasic        Complexity = "basico"
	ComplexityIntermediate Complexity = "intermediario"
	ComplexityAdvanced     Complexity = "avancado"
)

// ParseComplexity validates a complexity value against the known enum.
func ParseComplexity(s string) (Complexity, error) {
	switch c := Complexity(s); c {
	case ComplexityBasic, ComplexityIntermediate, ComplexityAdvanced:
		return c, nil
	}
	return "", &InvalidComplexityError{Value: s}
}

// ComplexityLevels returns the allowed complexity values in ascending order.
func ComplexityLevels() []string {
	return []string{
		string(ComplexityBasic),
		string(ComplexityIntermediate),
		string(ComplexityAdvanced),
	}
}

// Defaults applied once at parse time when a package omits optional fields.
const (
	defaultEmbeddingPriority = 0.5
	defaultRetrievalWeight   = 0.7

	// DefaultKnowledgeVersion is assumed for blocks and manifests that carry
	// no version of their own.
	DefaultKnowledgeVersion = "2.1.0"
)

// Block is the atomic retrievable unit of a knowledge package. Blocks are
// immutable once loaded; they live only as long as their owning package is
// cached by the Loader.
type Block struct {
	ID                string
	Content           string
	Complexity        Complexity
	Persona           string
	Tags              []string
	Regulatory        bool
	EmbeddingPriority float64
	RetrievalWeight   float64
	VectorReady       bool
	CrossReferences   []string
	KnowledgeVersion  string
	MacroCategory     string
	Subcategory       string
}

// blockWire mirrors the on-disk JSON field names of a package block.
// Pointer fields distinguish "absent" from zero so defaults apply only when
// the field is genuinely missing.
type blockWire struct {
	ID                    string   `json:"id"`
	Conteudo              string   `json:"conteudo"`
	NivelComplexidade     string   `json:"nivel_complexidade"`
	PersonaAlvo           string   `json:"persona_alvo"`
	Tags                  []string `json:"tags"`
	RegulatoryFlag        bool     `json:"regulatory_flag"`
	EmbeddingPriority     *float64 `json:"embedding_priority"`
	RetrievalWeight       *float64 `json:"retrieval_weight"`
	VectorReady           bool     `json:"vector_ready"`
	CrossPackageReference []string `json:"cross_package_reference"`
	KnowledgeVersion      string   `json:"knowledge_version"`
	CategoriaMacro        string   `json:"categoria_macro"`
	Subcategoria          string   `json:"subcategoria"`
}

// parseBlock converts a wire block into a Block, failing fast on missing
// required fields instead of defaulting them mid-query.
func parseBlock(w blockWire, segment string, pos int) (Block, error) {
	if w.ID == "" {
		return Block{}, fmt.Errorf("segment %q: block %d: missing required field %q", segment, pos, "id")
	}
	if w.Conteudo == "" {
		return Block{}, fmt.Errorf("segment %q: block %q: missing required field %q", segment, w.ID, "conteudo")
	}
	if w.NivelComplexidade == "" {
		return Block{}, fmt.Errorf("segment %q: block %q: missing required field %q", segment, w.ID, "nivel_complexidade")
	}
	complexity, err := ParseComplexity(w.NivelComplexidade)
	if err != nil {
		return Block{}, fmt.Errorf("segment %q: block %q: %w", segment, w.ID, err)
	}

	b := Block{
		ID:                w.ID,
		Content:           w.Conteudo,
		Complexity:        complexity,
		Persona:           w.PersonaAlvo,
		Tags:              w.Tags,
		Regulatory:        w.RegulatoryFlag,
		EmbeddingPriority: defaultEmbeddingPriority,
		RetrievalWeight:   defaultRetrievalWeight,
		VectorReady:       w.VectorReady,
		CrossReferences:   w.CrossPackageReference,
		KnowledgeVersion:  w.KnowledgeVersion,
		MacroCategory:     w.CategoriaMacro,
		Subcategory:       w.Subcategoria,
	}
	if w.EmbeddingPriority != nil {
		b.EmbeddingPriority = *w.EmbeddingPriority
	}
	if w.RetrievalWeight != nil {
		b.RetrievalWeight = *w.RetrievalWeight
	}
	if b.KnowledgeVersion == "" {
		b.KnowledgeVersion = DefaultKnowledgeVersion
	}
	return b, nil
}

// searchText returns the combined lowercase text a keyword search scores
// against: content, tags, and subcategory.
func (b Block) searchText() string {
	return strings.ToLower(b.Content + " " + strings.Join(b.Tags, " ") + " " + b.Subcategory)
}

// HasTag reports whether the block carries tag, case-insensitively.
func (b Block) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
