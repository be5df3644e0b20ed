package brands

import (
	"fmt"

	ms "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// AliasSearcherConfig points a Searcher at a Meilisearch instance.
type AliasSearcherConfig struct {
	Host      string
	APIKey    string
	IndexName string
}

// AliasSearcher indexes every known brand name alongside its known scraped
// spelling variants in Meilisearch, giving typo-tolerant lookup for brand
// names that don't match the registry's canonical spelling exactly (e.g.
// "Tim Horton's" vs "Tim Hortons"), the same role the teacher's gazetteer
// searcher plays for admin unit names.
type AliasSearcher struct {
	client    ms.ServiceManager
	indexName string
	logger    *zap.Logger
}

// NewAliasSearcher connects to cfg.Host without blocking on a ping, mirroring
// the teacher's NewClientWrapper.
func NewAliasSearcher(cfg AliasSearcherConfig, logger *zap.Logger) *AliasSearcher {
	indexName := cfg.IndexName
	if indexName == "" {
		indexName = "brand_aliases"
	}
	return &AliasSearcher{
		client:    ms.New(cfg.Host, ms.WithAPIKey(cfg.APIKey)),
		indexName: indexName,
		logger:    logger,
	}
}

// BuildIndex configures searchable attributes for brand+alias lookup.
func (s *AliasSearcher) BuildIndex() error {
	index := s.client.Index(s.indexName)
	task, err := index.UpdateSettings(&ms.Settings{
		SearchableAttributes: []string{"brand", "aliases"},
		FilterableAttributes: []string{"brand"},
	})
	if err != nil {
		return fmt.Errorf("configuring brand alias index: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("brand alias index configured", zap.Int64("task_uid", task.TaskUID))
	}
	return nil
}

// SeedAliases loads brand -> known alias spellings into the index, replacing
// whatever was seeded before. Document id is the index position: the index
// is rebuilt wholesale on every seed rather than incrementally maintained.
func (s *AliasSearcher) SeedAliases(aliases map[string][]string) error {
	if len(aliases) == 0 {
		return nil
	}
	index := s.client.Index(s.indexName)

	var docs []map[string]interface{}
	i := 0
	for brand, variants := range aliases {
		docs = append(docs, map[string]interface{}{
			"id":      i,
			"brand":   brand,
			"aliases": variants,
		})
		i++
	}

	task, err := index.AddDocuments(docs, "id")
	if err != nil {
		return fmt.Errorf("seeding brand aliases: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("brand aliases seeded", zap.Int("count", len(docs)), zap.Int64("task_uid", task.TaskUID))
	}
	return nil
}

// ResolveBrand finds the canonical brand name for a possibly-misspelled or
// aliased scraped brand string, via fuzzy/typo-tolerant search. Returns
// ("", false, nil) when nothing in the index is close enough to rank first.
func (s *AliasSearcher) ResolveBrand(rawBrand string) (string, bool, error) {
	index := s.client.Index(s.indexName)
	resp, err := index.Search(rawBrand, &ms.SearchRequest{Limit: 1})
	if err != nil {
		return "", false, fmt.Errorf("searching brand alias index: %w", err)
	}
	if len(resp.Hits) == 0 {
		return "", false, nil
	}
	hit, ok := resp.Hits[0].(map[string]interface{})
	if !ok {
		return "", false, nil
	}
	brand, ok := hit["brand"].(string)
	return brand, ok, nil
}
