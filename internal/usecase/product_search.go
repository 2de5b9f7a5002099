package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pricewise/backend/internal/domain"
	"go.uber.org/zap"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

	// Matches size/quantity patterns like "1.5 l", "500g", "6 x 33cl", "12 pack"
	sizeQuantityPattern = regexp.MustCompile(
		`(?i)\b\d+([.,]\d+)?\s*(x\s*\d+([.,]\d+)?\s*)?(fl\s*oz|oz|ml|cl|l|liters?|litres?|kg|g|grams?|lbs?|pack|pk|ct|count)\b`,
	)

	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// Scoring weights and bonuses
const (
	queryCoverageWeight   = 0.60 // share of query tokens found in the product
	productCoverageWeight = 0.20 // share of product tokens found in the query
	jaccardWeight         = 0.20
	brandMatchBonus       = 15.0
	substringMatchBonus   = 10.0
	fuzzyWeightFactor     = 0.8 // fuzzy token hits count 80% of an exact hit
	minFuzzyTokenLength   = 4
)

// searchStopWords are tokens that never help find a product
var searchStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "with": true, "for": true,
	"pack": true, "bottle": true, "can": true, "box": true, "bag": true, "jar": true,
	"size": true, "value": true, "family": true, "new": true,
}

// ProductSearchConfig holds configuration for product search
type ProductSearchConfig struct {
	MinScore            float64
	EnableFuzzyMatching bool
	FuzzyEditDistance   int
	DefaultLimit        int
}

// ProductSearchService ranks registered products against free-text queries
type ProductSearchService struct {
	products            domain.ProductRepository
	logger              *zap.Logger
	minScore            float64
	enableFuzzyMatching bool
	fuzzyEditDistance   int
	defaultLimit        int
}

// NewProductSearchService creates a new search service with the given configuration
func NewProductSearchService(products domain.ProductRepository, logger *zap.Logger, config ProductSearchConfig) *ProductSearchService {
	minScore := config.MinScore
	if minScore <= 0 {
		minScore = 30.0
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	limit := config.DefaultLimit
	if limit <= 0 {
		limit = 10
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProductSearchService{
		products:            products,
		logger:              logger,
		minScore:            minScore,
		enableFuzzyMatching: config.EnableFuzzyMatching,
		fuzzyEditDistance:   fuzzyDist,
		defaultLimit:        limit,
	}
}

// Search returns registered products matching query, best first.
// Products scoring below the configured minimum are dropped.
func (s *ProductSearchService) Search(ctx context.Context, query string, limit int) ([]domain.ProductMatch, error) {
	cleaned := cleanSearchQuery(query)
	queryTokens := tokenize(cleaned)
	if len(queryTokens) == 0 {
		return nil, fmt.Errorf("%w: search query %q has no usable terms", domain.ErrInvalidInput, query)
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.ProductMatch, 0)
	for _, product := range products {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		score, matched := s.score(cleaned, queryTokens, product)
		if score < s.minScore {
			continue
		}
		matches = append(matches, domain.ProductMatch{
			Product:       product,
			Score:         score,
			MatchedTokens: matched,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	s.logger.Debug("product search",
		zap.String("query", query),
		zap.String("cleaned", cleaned),
		zap.Int("candidates", len(products)),
		zap.Int("matches", len(matches)))

	return matches, nil
}

// score computes similarity (0-100) between the query and a product.
// Query coverage dominates; product coverage and Jaccard refine it.
func (s *ProductSearchService) score(cleanedQuery string, queryTokens []string, product domain.Product) (float64, []string) {
	productTokens := tokenize(product.Name + " " + product.Brand)
	if len(productTokens) == 0 {
		return 0, nil
	}

	queryHits, matched := s.weightedIntersection(queryTokens, productTokens)
	queryCoverage := queryHits / float64(len(queryTokens))

	productHits, _ := s.weightedIntersection(productTokens, queryTokens)
	productCoverage := productHits / float64(len(productTokens))

	jaccard := float64(len(matched)) / float64(unionSize(queryTokens, productTokens))

	score := (queryCoverage*queryCoverageWeight + productCoverage*productCoverageWeight + jaccard*jaccardWeight) * 100

	queryLower := strings.ToLower(cleanedQuery)
	if product.Brand != "" && strings.Contains(queryLower, strings.ToLower(product.Brand)) {
		score += brandMatchBonus
	}
	nameLower := strings.ToLower(product.Name)
	if len(queryLower) > 3 && strings.Contains(nameLower, queryLower) {
		score += substringMatchBonus
	}

	if score > 100 {
		score = 100
	}
	return score, matched
}

// weightedIntersection counts tokens of a found in b; fuzzy hits count partially
func (s *ProductSearchService) weightedIntersection(a, b []string) (float64, []string) {
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}

	var hits float64
	var matched []string
	seen := make(map[string]bool)
	for _, t := range a {
		if seen[t] {
			continue
		}
		seen[t] = true

		if set[t] {
			hits++
			matched = append(matched, t)
			continue
		}
		if !s.enableFuzzyMatching {
			continue
		}
		for _, candidate := range b {
			if fuzzyTokenMatch(t, candidate, s.fuzzyEditDistance) {
				hits += fuzzyWeightFactor
				matched = append(matched, t)
				break
			}
		}
	}
	return hits, matched
}

// cleanSearchQuery strips size and pack noise from a typed product name
func cleanSearchQuery(query string) string {
	if idx := strings.Index(query, ","); idx > 0 {
		query = query[:idx]
	}
	query = sizeQuantityPattern.ReplaceAllString(query, " ")
	query = multipleSpacesRegex.ReplaceAllString(query, " ")
	return strings.TrimSpace(query)
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len([]rune(word)) <= 1 {
			continue
		}
		if searchStopWords[word] {
			continue
		}
		if isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	r1, r2 := []rune(token1), []rune(token2)
	if len(r1) < minFuzzyTokenLength || len(r2) < minFuzzyTokenLength {
		return false
	}

	lenDiff := len(r1) - len(r2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(r1, r2) <= threshold
}

// levenshteinDistance calculates the edit distance between two rune slices
func levenshteinDistance(r1, r2 []rune) int {
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}

// unionSize returns the count of unique tokens across both sets
func unionSize(tokens1, tokens2 []string) int {
	set := make(map[string]bool, len(tokens1)+len(tokens2))
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}
