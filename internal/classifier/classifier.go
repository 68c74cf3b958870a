package classifier

import (
	"encoding/gob"
	"fmt"
	"os"
	"strings"

	"github.com/skarger/chatmood/internal/domain"
)

// Vectorizer maps tokens to feature indices with per-term idf weights.
// Produced by the offline training job; opaque to the pipeline.
type Vectorizer struct {
	Vocabulary map[string]int
	Idf        []float64
}

// LinearModel is a binary linear classifier over the vectorizer's feature
// space. A non-negative decision value means positive sentiment.
type LinearModel struct {
	Coefficients []float64
	Intercept    float64
}

// Model combines the two artifacts into a domain.Classifier.
// The decision is surfaced as a fixed +1.0 / -1.0 score; a future
// continuous-score model fits the same contract.
type Model struct {
	vectorizer *Vectorizer
	model      *LinearModel
}

var _ domain.Classifier = (*Model)(nil)

// Load reads both model artifacts. Any missing or unreadable artifact is an
// error; callers treat this as fatal at startup.
func Load(vectorizerPath, classifierPath string) (*Model, error) {
	var vec Vectorizer
	if err := decodeArtifact(vectorizerPath, &vec); err != nil {
		return nil, fmt.Errorf("failed to load vectorizer: %w", err)
	}

	var lm LinearModel
	if err := decodeArtifact(classifierPath, &lm); err != nil {
		return nil, fmt.Errorf("failed to load classifier: %w", err)
	}

	if len(vec.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer has an empty vocabulary")
	}
	if len(vec.Idf) != len(lm.Coefficients) {
		return nil, fmt.Errorf("artifact dimension mismatch: %d idf weights vs %d coefficients", len(vec.Idf), len(lm.Coefficients))
	}

	return &Model{vectorizer: &vec, model: &lm}, nil
}

func decodeArtifact(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Classify scores a single message. Deterministic and side-effect free.
// Returns an error for empty input; callers treat that as a per-message
// failure, not a pipeline failure.
func (m *Model) Classify(text string) (float64, error) {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return 0, fmt.Errorf("cannot classify empty message")
	}

	// Term frequencies over the known vocabulary. Out-of-vocabulary tokens
	// contribute nothing, matching the vectorizer's training-time behavior.
	tf := make(map[int]float64, len(tokens))
	for _, tok := range tokens {
		if idx, ok := m.vectorizer.Vocabulary[tok]; ok {
			tf[idx]++
		}
	}

	decision := m.model.Intercept
	for idx, count := range tf {
		if idx < 0 || idx >= len(m.model.Coefficients) {
			return 0, fmt.Errorf("feature index %d out of range", idx)
		}
		decision += count * m.vectorizer.Idf[idx] * m.model.Coefficients[idx]
	}

	if decision >= 0 {
		return 1.0, nil
	}
	return -1.0, nil
}
