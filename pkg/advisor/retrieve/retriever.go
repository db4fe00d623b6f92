package retrieve

import (
	"context"
	"log"
	"sort"

	"berry-advisory-be/pkg/advisor/cultivar"

	"github.com/google/uuid"
)

// Fragment sources.
const (
	SourceKnowledge = "knowledge"
	SourceDocument  = "document"
)

// Retrieval tiers, in priority order. Tier 1 is curated Q&A matched on
// category and cultivar, tier 2 is document chunks matched on cultivar,
// tier 3 is document chunks of the family-general label.
const (
	TierCurated  = 1
	TierDocument = 2
	TierGeneral  = 3
)

// Fragment is one retrieved piece of grounding context.
type Fragment struct {
	Source     string
	Tier       int
	RecordID   uuid.UUID
	DocumentID uuid.UUID
	Category   string
	Cultivar   string
	Question   string
	Content    string
	Similarity float64
}

// KnowledgeMatch is a curated Q&A row scored against the query vector.
type KnowledgeMatch struct {
	RecordID   uuid.UUID
	Question   string
	Answer     string
	Category   string
	Cultivar   string
	Similarity float64
}

// ChunkMatch is a document chunk scored against the query vector.
type ChunkMatch struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	Content    string
	Cultivar   string
	Similarity float64
}

// KnowledgeSearcher runs a similarity search over curated Q&A entries.
// Empty category or cultivar means no filter on that column.
type KnowledgeSearcher interface {
	SearchSimilarEntries(ctx context.Context, category, cultivar string, embedding []float32, limit int, minSimilarity float64) ([]KnowledgeMatch, error)
}

// ChunkSearcher runs a similarity search over document chunks. Empty
// cultivar means no filter.
type ChunkSearcher interface {
	SearchSimilarChunks(ctx context.Context, cultivar string, embedding []float32, limit int, minSimilarity float64) ([]ChunkMatch, error)
}

// Config holds the retrieval limits and similarity floors. Tier 1 is the
// strictest: a curated answer must match well before it outranks everything
// else, while the fallback tiers accept weaker matches.
type Config struct {
	KnowledgeLimit        int
	ChunkLimit            int
	TierOneMinSimilarity  float64
	FallbackMinSimilarity float64
}

func DefaultConfig() Config {
	return Config{
		KnowledgeLimit:        2,
		ChunkLimit:            3,
		TierOneMinSimilarity:  0.65,
		FallbackMinSimilarity: 0.55,
	}
}

// Retriever assembles grounding context for a classified question across
// the three tiers. A failing tier is logged and skipped, never fatal: an
// answer composed from fewer fragments beats no answer.
type Retriever struct {
	knowledge KnowledgeSearcher
	chunks    ChunkSearcher
	cfg       Config
	logger    *log.Logger
}

func NewRetriever(knowledge KnowledgeSearcher, chunks ChunkSearcher, cfg Config, logger *log.Logger) *Retriever {
	return &Retriever{
		knowledge: knowledge,
		chunks:    chunks,
		cfg:       cfg,
		logger:    logger,
	}
}

// Retrieve returns fragments ordered by (tier, similarity desc). Sentinel
// cultivar labels search tier 1 category-wide and skip the cultivar-bound
// tiers entirely.
func (r *Retriever) Retrieve(ctx context.Context, category, cultivarLabel string, embedding []float32) []Fragment {
	cultivarFilter := cultivarLabel
	if cultivarLabel == "" || cultivar.IsSentinel(cultivarLabel) {
		cultivarFilter = ""
	}

	fragments := make([]Fragment, 0, r.cfg.KnowledgeLimit+r.cfg.ChunkLimit*2)
	fragments = append(fragments, r.tierCurated(ctx, category, cultivarFilter, embedding)...)

	if cultivarFilter != "" {
		fragments = append(fragments, r.tierDocument(ctx, cultivarFilter, embedding)...)
		fragments = append(fragments, r.tierGeneral(ctx, cultivarFilter, embedding)...)
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		if fragments[i].Tier != fragments[j].Tier {
			return fragments[i].Tier < fragments[j].Tier
		}
		return fragments[i].Similarity > fragments[j].Similarity
	})
	return fragments
}

// tierCurated searches Q&A on category and cultivar. When the cultivar-bound
// search comes back empty the category alone is retried, so a question about
// a plant with no curated entries still gets category-level grounding.
func (r *Retriever) tierCurated(ctx context.Context, category, cultivarFilter string, embedding []float32) []Fragment {
	matches, err := r.knowledge.SearchSimilarEntries(ctx, category, cultivarFilter, embedding, r.cfg.KnowledgeLimit, r.cfg.TierOneMinSimilarity)
	if err != nil {
		r.logger.Printf("[RETRIEVE] tier 1 search failed: %v", err)
		return nil
	}
	if len(matches) == 0 && cultivarFilter != "" {
		matches, err = r.knowledge.SearchSimilarEntries(ctx, category, "", embedding, r.cfg.KnowledgeLimit, r.cfg.TierOneMinSimilarity)
		if err != nil {
			r.logger.Printf("[RETRIEVE] tier 1 category retry failed: %v", err)
			return nil
		}
	}
	return knowledgeFragments(matches, TierCurated)
}

func (r *Retriever) tierDocument(ctx context.Context, cultivarFilter string, embedding []float32) []Fragment {
	matches, err := r.chunks.SearchSimilarChunks(ctx, cultivarFilter, embedding, r.cfg.ChunkLimit, r.cfg.FallbackMinSimilarity)
	if err != nil {
		r.logger.Printf("[RETRIEVE] tier 2 search failed: %v", err)
		return nil
	}
	return chunkFragments(matches, TierDocument)
}

// tierGeneral falls back to document chunks of the family-general label,
// but only when the label actually generalizes ("raspberry, remontant" ->
// "raspberry, general").
func (r *Retriever) tierGeneral(ctx context.Context, cultivarFilter string, embedding []float32) []Fragment {
	general := cultivar.GeneralLabel(cultivarFilter)
	if general == cultivarFilter {
		return nil
	}
	matches, err := r.chunks.SearchSimilarChunks(ctx, general, embedding, r.cfg.ChunkLimit, r.cfg.FallbackMinSimilarity)
	if err != nil {
		r.logger.Printf("[RETRIEVE] tier 3 search failed: %v", err)
		return nil
	}
	return chunkFragments(matches, TierGeneral)
}

func chunkFragments(matches []ChunkMatch, tier int) []Fragment {
	fragments := make([]Fragment, len(matches))
	for i, m := range matches {
		fragments[i] = Fragment{
			Source:     SourceDocument,
			Tier:       tier,
			RecordID:   m.ChunkID,
			DocumentID: m.DocumentID,
			Cultivar:   m.Cultivar,
			Content:    m.Content,
			Similarity: m.Similarity,
		}
	}
	return fragments
}

func knowledgeFragments(matches []KnowledgeMatch, tier int) []Fragment {
	fragments := make([]Fragment, len(matches))
	for i, m := range matches {
		fragments[i] = Fragment{
			Source:     SourceKnowledge,
			Tier:       tier,
			RecordID:   m.RecordID,
			Category:   m.Category,
			Cultivar:   m.Cultivar,
			Question:   m.Question,
			Content:    m.Answer,
			Similarity: m.Similarity,
		}
	}
	return fragments
}
