package similarity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var corpus = []Document{
	{ID: 1, Text: "Amazing pizza and great service!"},
	{ID: 2, Text: "The delivery was slow and the pizza arrived cold"},
	{ID: 3, Text: "Friendly staff, quiet atmosphere, fair price"},
	{ID: 4, Text: "Dirty tables and rude staff"},
}

func TestTokenizeDropsStopWordsAndAddsBigrams(t *testing.T) {
	got := tokenize("The pizza was GREAT, a real treat")
	require.Equal(t, []string{"pizza", "great", "real", "treat", "pizza great", "great real", "real treat"}, got)
}

func TestTokenizeDropsFullEnglishStopList(t *testing.T) {
	got := tokenize("Never get back here, see nothing well made, go thru many")
	require.Empty(t, got)
	require.Len(t, stopWords, 318)
	require.Equal(t, []string{"came", "pizza", "came pizza"}, tokenize("We came back for the pizza"))
}

func TestQueryRanksBySimilarity(t *testing.T) {
	idx := Build(corpus, 0)
	matches := idx.Query("slow pizza delivery", 5)
	require.NotEmpty(t, matches)
	require.Equal(t, int64(2), matches[0].ID)
	for i := 1; i < len(matches); i++ {
		require.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	for _, m := range matches {
		require.Greater(t, m.Score, 0.0)
		require.NotEqual(t, int64(3), m.ID)
	}
}

func TestQueryRespectsK(t *testing.T) {
	idx := Build(corpus, 0)
	require.Len(t, idx.Query("staff pizza", 1), 1)
	require.Empty(t, idx.Query("staff pizza", 0))
}

func TestQueryEdgeCases(t *testing.T) {
	require.Empty(t, Build(nil, 0).Query("pizza", 5))
	require.Empty(t, Build(corpus, 0).Query("quantum chromodynamics", 5))
	require.Empty(t, Build(corpus, 0).Query("the and a", 5))
}

func TestQueryTiesBrokenByLowerID(t *testing.T) {
	idx := Build([]Document{
		{ID: 9, Text: "great burger"},
		{ID: 3, Text: "great burger"},
		{ID: 5, Text: "great burger"},
	}, 0)
	matches := idx.Query("burger", 2)
	require.Len(t, matches, 2)
	require.Equal(t, int64(3), matches[0].ID)
	require.Equal(t, int64(5), matches[1].ID)
	require.InDelta(t, matches[0].Score, matches[1].Score, 1e-12)
}

func TestIdenticalMultiTermDocumentsTieExactly(t *testing.T) {
	text := "crispy crust crispy crust fresh basil tomato sauce oven baked dough mozzarella cheese " +
		"garlic knots pepperoni slice waiter refilled drinks pepperoni slice crispy crust dessert tiramisu " +
		"espresso bitter espresso strong parking tight booth cozy booth cozy music loud music loud"
	docs := make([]Document, 0, 8)
	for _, id := range []int64{8, 3, 6, 1, 7, 2, 5, 4} {
		docs = append(docs, Document{ID: id, Text: text})
	}
	for run := 0; run < 50; run++ {
		idx := Build(docs, 0)
		matches := idx.Query(text, 8)
		require.Len(t, matches, 8)
		for i, m := range matches {
			require.Equal(t, int64(i+1), m.ID)
			require.Equal(t, matches[0].Score, m.Score)
		}
	}
}

func TestBuildLimitsVocabulary(t *testing.T) {
	idx := Build(corpus, 3)
	require.Equal(t, 3, idx.Stats().VocabularySize)
	stats := Build(corpus, 0).Stats()
	require.True(t, stats.IndexBuilt)
	require.Equal(t, 4, stats.TotalReviews)
	require.False(t, Build(nil, 0).Stats().IndexBuilt)
}

func TestIdenticalDocumentScoresOne(t *testing.T) {
	idx := Build(corpus, 0)
	matches := idx.Query(corpus[3].Text, 1)
	require.Len(t, matches, 1)
	require.Equal(t, int64(4), matches[0].ID)
	require.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestHolderRebuildSwapsIndex(t *testing.T) {
	docs := []Document{}
	h := NewHolder(func(ctx context.Context) ([]Document, error) {
		return docs, nil
	}, 0)
	require.Empty(t, h.Query("pizza", 5))

	rebuilt := 0
	h.OnRebuild(func(n int, _ time.Duration) {
		rebuilt = n
	})
	docs = corpus
	require.NoError(t, h.Rebuild(context.Background()))
	require.NotEmpty(t, h.Query("pizza", 5))
	require.Equal(t, 4, h.Stats().TotalReviews)
	require.Equal(t, 4, rebuilt)
}

func TestHolderKeepsPreviousIndexOnLoadError(t *testing.T) {
	fail := false
	h := NewHolder(func(ctx context.Context) ([]Document, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return corpus, nil
	}, 0)
	require.NoError(t, h.Rebuild(context.Background()))
	fail = true
	require.Error(t, h.Rebuild(context.Background()))
	require.Equal(t, 4, h.Stats().TotalReviews)
}
