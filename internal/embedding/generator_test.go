package embedding

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestGenerateDeterministic(t *testing.T) {
	gen := NewGenerator(NewHashProvider(DefaultDimension))

	a, err := gen.Generate(context.Background(), "Go developer with PostgreSQL experience")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := gen.Generate(context.Background(), "Go developer with PostgreSQL experience")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(a) != DefaultDimension {
		t.Fatalf("dimension = %d, want %d", len(a), DefaultDimension)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestGenerateNormalizes(t *testing.T) {
	gen := NewGenerator(NewHashProvider(DefaultDimension))

	vec, err := gen.Generate(context.Background(), "software engineer resume text")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-5 {
		t.Errorf("norm = %v, want 1.0", math.Sqrt(sum))
	}
}

func TestGenerateEmptyInput(t *testing.T) {
	gen := NewGenerator(NewHashProvider(DefaultDimension))
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := gen.Generate(context.Background(), text); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Generate(%q) err = %v, want ErrEmptyInput", text, err)
		}
	}
}

func TestGenerateBatchDropsEmptyTexts(t *testing.T) {
	gen := NewGenerator(NewHashProvider(DefaultDimension))

	vectors, err := gen.GenerateBatch(context.Background(), []string{"first text", "", "second text", "  "})
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2 after dropping empties", len(vectors))
	}

	if _, err := gen.GenerateBatch(context.Background(), []string{"", "  "}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("all-empty batch err = %v, want ErrEmptyInput", err)
	}
	if _, err := gen.GenerateBatch(context.Background(), nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("nil batch err = %v, want ErrEmptyInput", err)
	}
}

func TestGenerateDimensionMismatch(t *testing.T) {
	gen := NewGenerator(fixedDimProvider{claimed: DefaultDimension, actual: 128})

	_, err := gen.Generate(context.Background(), "some text")
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestPreprocess(t *testing.T) {
	if got := Preprocess("  many   spaces\t\tand\nnewlines  "); got != "many spaces and newlines" {
		t.Errorf("Preprocess = %q", got)
	}

	long := strings.Repeat("word ", 1000)
	got := Preprocess(long)
	if len(got) > maxInputChars {
		t.Errorf("preprocessed length = %d, want <= %d", len(got), maxInputChars)
	}
	if !strings.HasPrefix(long, got[:50]) {
		t.Error("truncation must keep the prefix")
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	if got := CosineSimilarity(a, a); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical vectors = %v, want 1.0", got)
	}
	if got := CosineSimilarity(a, b); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors = %v, want 0.0", got)
	}
	if got := CosineSimilarity(a, []float32{-1, 0, 0}); math.Abs(got+1.0) > 1e-9 {
		t.Errorf("opposite vectors = %v, want -1.0", got)
	}

	// Degenerate inputs return 0.0, not an error.
	if got := CosineSimilarity(nil, nil); got != 0.0 {
		t.Errorf("nil vectors = %v, want 0.0", got)
	}
	if got := CosineSimilarity(a, []float32{1, 0}); got != 0.0 {
		t.Errorf("mismatched lengths = %v, want 0.0", got)
	}
	if got := CosineSimilarity([]float32{0, 0, 0}, a); got != 0.0 {
		t.Errorf("zero vector = %v, want 0.0", got)
	}
}

func TestSimilarTextsScoreHigher(t *testing.T) {
	gen := NewGenerator(NewHashProvider(DefaultDimension))
	ctx := context.Background()

	doc, _ := gen.Generate(ctx, "experienced Go backend developer building microservices")
	near, _ := gen.Generate(ctx, "Go backend developer with microservices experience")
	far, _ := gen.Generate(ctx, "pastry chef specializing in wedding cakes")

	if CosineSimilarity(doc, near) <= CosineSimilarity(doc, far) {
		t.Error("related texts should score higher than unrelated texts")
	}
}

type fixedDimProvider struct {
	claimed int
	actual  int
}

func (p fixedDimProvider) Name() string   { return "fixed" }
func (p fixedDimProvider) Dimension() int { return p.claimed }

func (p fixedDimProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, p.actual)
	}
	return out, nil
}
