package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashProvider is a deterministic, dependency-free embedding backend built on
// token feature hashing. Texts sharing vocabulary land close together under
// cosine similarity, which is enough for development environments and tests;
// it is not a substitute for a real sentence model in production.
type HashProvider struct {
	dimension int
}

// NewHashProvider constructs a HashProvider with the given dimension.
func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashProvider{dimension: dimension}
}

// Name identifies the provider implementation.
func (p *HashProvider) Name() string { return "hash" }

// Dimension reports the vector length this provider produces.
func (p *HashProvider) Dimension() int { return p.dimension }

// Embed returns one vector per input text, in input order.
func (p *HashProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.embedOne(text)
	}
	return vectors, nil
}

func (p *HashProvider) embedOne(text string) []float32 {
	vec := make([]float32, p.dimension)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		bucket := int(sum % uint32(p.dimension))
		// Half the hash space contributes negatively so that disjoint
		// vocabularies do not correlate just by sharing buckets.
		if sum&0x80000000 != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
