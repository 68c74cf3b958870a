package classifier

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, name string, v any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gob.NewEncoder(f).Encode(v))
	return path
}

// testModel scores "great" and "love" positively, "terrible" and "awful"
// negatively, with a slightly positive intercept so unknown text leans positive.
func testModel(t *testing.T) *Model {
	t.Helper()
	dir := t.TempDir()

	vec := Vectorizer{
		Vocabulary: map[string]int{"great": 0, "love": 1, "terrible": 2, "awful": 3},
		Idf:        []float64{1, 1, 1, 1},
	}
	lm := LinearModel{
		Coefficients: []float64{2.0, 1.5, -2.0, -1.5},
		Intercept:    0.1,
	}

	vp := writeArtifact(t, dir, "vectorizer.gob", vec)
	cp := writeArtifact(t, dir, "classifier.gob", lm)

	m, err := Load(vp, cp)
	require.NoError(t, err)
	return m
}

func TestLoad_MissingArtifacts(t *testing.T) {
	dir := t.TempDir()
	vp := writeArtifact(t, dir, "vectorizer.gob", Vectorizer{Vocabulary: map[string]int{"a": 0}, Idf: []float64{1}})

	_, err := Load(vp, filepath.Join(dir, "nope.gob"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load classifier")

	_, err = Load(filepath.Join(dir, "nope.gob"), vp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load vectorizer")
}

func TestLoad_CorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.gob")
	require.NoError(t, os.WriteFile(bad, []byte("not a gob stream"), 0o600))

	_, err := Load(bad, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestLoad_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	vp := writeArtifact(t, dir, "vectorizer.gob", Vectorizer{Vocabulary: map[string]int{"a": 0}, Idf: []float64{1, 2}})
	cp := writeArtifact(t, dir, "classifier.gob", LinearModel{Coefficients: []float64{1}})

	_, err := Load(vp, cp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestClassify(t *testing.T) {
	m := testModel(t)

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"positive", "what a GREAT stream", 1.0},
		{"negative", "this is terrible", -1.0},
		{"mixed leans positive", "great but awful", 1.0},
		{"all unknown tokens fall back to intercept", "zzz qqq", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Classify(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_EmptyMessage(t *testing.T) {
	m := testModel(t)

	_, err := m.Classify("   ")
	require.Error(t, err)
}

func TestClassify_Deterministic(t *testing.T) {
	m := testModel(t)

	first, err := m.Classify("I love this")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := m.Classify("I love this")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}
