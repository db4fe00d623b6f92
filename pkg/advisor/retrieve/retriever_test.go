package retrieve

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"berry-advisory-be/pkg/advisor/cultivar"

	"github.com/google/uuid"
)

type knowledgeCall struct {
	category string
	cultivar string
}

type fakeKnowledge struct {
	calls   []knowledgeCall
	results map[knowledgeCall][]KnowledgeMatch
	err     error
}

func (f *fakeKnowledge) SearchSimilarEntries(ctx context.Context, category, cultivarLabel string, embedding []float32, limit int, minSimilarity float64) ([]KnowledgeMatch, error) {
	call := knowledgeCall{category: category, cultivar: cultivarLabel}
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[call], nil
}

type fakeChunks struct {
	calls   []string
	results map[string][]ChunkMatch
	err     error
}

func (f *fakeChunks) SearchSimilarChunks(ctx context.Context, cultivarLabel string, embedding []float32, limit int, minSimilarity float64) ([]ChunkMatch, error) {
	f.calls = append(f.calls, cultivarLabel)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[cultivarLabel], nil
}

func newTestRetriever(knowledge KnowledgeSearcher, chunks ChunkSearcher) *Retriever {
	return NewRetriever(knowledge, chunks, DefaultConfig(), log.New(io.Discard, "", 0))
}

func km(question string, similarity float64) KnowledgeMatch {
	return KnowledgeMatch{RecordID: uuid.New(), Question: question, Answer: "answer", Similarity: similarity}
}

func TestRetrieveTierOrderIsHardPartition(t *testing.T) {
	label := "raspberry, remontant"
	knowledge := &fakeKnowledge{results: map[knowledgeCall][]KnowledgeMatch{
		{category: "nutrition", cultivar: label}: {km("q1", 0.70)},
	}}
	chunks := &fakeChunks{results: map[string][]ChunkMatch{
		label:                {{ChunkID: uuid.New(), DocumentID: uuid.New(), Content: "chunk", Similarity: 0.95}},
		"raspberry, general": {{ChunkID: uuid.New(), DocumentID: uuid.New(), Content: "general chunk", Similarity: 0.99}},
	}}

	fragments := newTestRetriever(knowledge, chunks).Retrieve(context.Background(), "nutrition", label, []float32{0.1})

	if len(fragments) != 3 {
		t.Fatalf("got %d fragments, want 3", len(fragments))
	}
	// A weaker tier 1 match still outranks stronger tier 2 and 3 matches.
	wantTiers := []int{TierCurated, TierDocument, TierGeneral}
	for i, want := range wantTiers {
		if fragments[i].Tier != want {
			t.Errorf("fragments[%d].Tier = %d, want %d", i, fragments[i].Tier, want)
		}
	}
}

func TestRetrieveSortsBySimilarityWithinTier(t *testing.T) {
	knowledge := &fakeKnowledge{results: map[knowledgeCall][]KnowledgeMatch{
		{category: "nutrition", cultivar: cultivar.FamilyCurrant}: {km("weak", 0.66), km("strong", 0.90)},
	}}
	chunks := &fakeChunks{}

	fragments := newTestRetriever(knowledge, chunks).Retrieve(context.Background(), "nutrition", cultivar.FamilyCurrant, []float32{0.1})

	if len(fragments) != 2 {
		t.Fatalf("got %d fragments, want 2", len(fragments))
	}
	if fragments[0].Question != "strong" || fragments[1].Question != "weak" {
		t.Errorf("fragments not ordered by similarity: %q then %q", fragments[0].Question, fragments[1].Question)
	}
}

func TestRetrieveTierOneRetriesCategoryWide(t *testing.T) {
	knowledge := &fakeKnowledge{results: map[knowledgeCall][]KnowledgeMatch{
		{category: "plant protection", cultivar: ""}: {km("category-wide", 0.70)},
	}}
	chunks := &fakeChunks{}

	fragments := newTestRetriever(knowledge, chunks).Retrieve(context.Background(), "plant protection", cultivar.FamilyBlueberry, []float32{0.1})

	if len(knowledge.calls) < 2 {
		t.Fatalf("expected cultivar search then category retry, got calls %v", knowledge.calls)
	}
	if knowledge.calls[0].cultivar != cultivar.FamilyBlueberry || knowledge.calls[1].cultivar != "" {
		t.Errorf("unexpected call order: %v", knowledge.calls[:2])
	}
	if len(fragments) != 1 || fragments[0].Question != "category-wide" {
		t.Errorf("expected the category-wide fallback result, got %v", fragments)
	}
}

func TestRetrieveSentinelSkipsCultivarTiers(t *testing.T) {
	knowledge := &fakeKnowledge{results: map[knowledgeCall][]KnowledgeMatch{
		{category: "nutrition", cultivar: ""}: {km("general", 0.80)},
	}}
	chunks := &fakeChunks{results: map[string][]ChunkMatch{
		"": {{Content: "must not appear"}},
	}}

	fragments := newTestRetriever(knowledge, chunks).Retrieve(context.Background(), "nutrition", cultivar.GeneralInformation, []float32{0.1})

	if len(chunks.calls) != 0 {
		t.Error("document tier must be skipped for sentinel cultivars")
	}
	for _, f := range fragments {
		if f.Tier != TierCurated {
			t.Errorf("unexpected tier %d for sentinel retrieval", f.Tier)
		}
	}
}

func TestRetrieveGeneralTierSearchesDocumentChunks(t *testing.T) {
	label := "raspberry, remontant"
	general := cultivar.GeneralLabel(label)
	knowledge := &fakeKnowledge{results: map[knowledgeCall][]KnowledgeMatch{}}
	chunks := &fakeChunks{results: map[string][]ChunkMatch{
		general: {{ChunkID: uuid.New(), DocumentID: uuid.New(), Cultivar: general, Content: "general doc", Similarity: 0.60}},
	}}

	fragments := newTestRetriever(knowledge, chunks).Retrieve(context.Background(), "nutrition", label, []float32{0.1})

	if len(chunks.calls) != 2 || chunks.calls[0] != label || chunks.calls[1] != general {
		t.Fatalf("chunk store calls = %v, want [%s %s]", chunks.calls, label, general)
	}
	if len(fragments) != 1 {
		t.Fatalf("got %d fragments, want 1", len(fragments))
	}
	if fragments[0].Tier != TierGeneral || fragments[0].Source != SourceDocument {
		t.Errorf("general fallback fragment = tier %d source %q, want tier %d source %q",
			fragments[0].Tier, fragments[0].Source, TierGeneral, SourceDocument)
	}
}

func TestRetrieveSkipsGeneralTierWhenLabelAlreadyGeneral(t *testing.T) {
	knowledge := &fakeKnowledge{results: map[knowledgeCall][]KnowledgeMatch{}}
	chunks := &fakeChunks{}

	newTestRetriever(knowledge, chunks).Retrieve(context.Background(), "nutrition", cultivar.FamilyGooseberry, []float32{0.1})

	// Single-label families have no separate general form, so only the
	// tier 2 chunk search may run.
	if len(chunks.calls) != 1 || chunks.calls[0] != cultivar.FamilyGooseberry {
		t.Errorf("chunk store calls = %v, want just [%s]", chunks.calls, cultivar.FamilyGooseberry)
	}
}

func TestRetrieveIsolatesTierFailures(t *testing.T) {
	knowledge := &fakeKnowledge{err: errors.New("db down")}
	chunks := &fakeChunks{results: map[string][]ChunkMatch{
		"raspberry, remontant": {{ChunkID: uuid.New(), Content: "survivor", Similarity: 0.80}},
	}}

	fragments := newTestRetriever(knowledge, chunks).Retrieve(context.Background(), "nutrition", "raspberry, remontant", []float32{0.1})

	if len(fragments) != 1 || fragments[0].Content != "survivor" {
		t.Fatalf("expected document tier to survive knowledge failure, got %v", fragments)
	}
}
