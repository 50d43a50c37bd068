package suggest

import (
	"sort"

	"github.com/bastiangx/mentionserve/internal/utils"
)

// OrderingStrategy merges the newest result of every bucket into the list
// shown to the user.
type OrderingStrategy interface {
	Order(results map[string]Result, keywords string) []Suggestible
}

// OrderingFunc adapts a function to OrderingStrategy.
type OrderingFunc func(results map[string]Result, keywords string) []Suggestible

// Order implements OrderingStrategy.
func (f OrderingFunc) Order(results map[string]Result, keywords string) []Suggestible {
	return f(results, keywords)
}

// BucketOrder concatenates buckets in the order given. Buckets not named come
// last, alphabetically.
func BucketOrder(names ...string) OrderingStrategy {
	rank := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := rank[name]; !dup {
			rank[name] = i
		}
	}
	return OrderingFunc(func(results map[string]Result, _ string) []Suggestible {
		buckets := make([]string, 0, len(results))
		total := 0
		for name, r := range results {
			buckets = append(buckets, name)
			total += r.Len()
		}
		sort.Slice(buckets, func(i, j int) bool {
			ri, iKnown := rank[buckets[i]]
			rj, jKnown := rank[buckets[j]]
			switch {
			case iKnown && jKnown:
				return ri < rj
			case iKnown != jKnown:
				return iKnown
			default:
				return buckets[i] < buckets[j]
			}
		})

		list := make([]Suggestible, 0, total)
		for _, name := range buckets {
			list = append(list, results[name].suggestions...)
		}
		return list
	})
}

// KeywordRank moves suggestions whose primary text, or a word of it, starts
// with the keywords ahead of the rest. The order of next is otherwise kept.
func KeywordRank(next OrderingStrategy) OrderingStrategy {
	if next == nil {
		next = BucketOrder()
	}
	return OrderingFunc(func(results map[string]Result, keywords string) []Suggestible {
		list := next.Order(results, keywords)
		if keywords == "" {
			return list
		}
		sort.SliceStable(list, func(i, j int) bool {
			return utils.HasWordPrefixIgnoreCase(list[i].PrimaryText(), keywords) &&
				!utils.HasWordPrefixIgnoreCase(list[j].PrimaryText(), keywords)
		})
		return list
	})
}

// Dedupe removes repeated SuggestibleIDs, keeping the first occurrence.
func Dedupe(list []Suggestible) []Suggestible {
	filter := utils.NewIDFilter()
	out := make([]Suggestible, 0, len(list))
	for _, s := range list {
		if filter.ShouldInclude(s.SuggestibleID()) {
			out = append(out, s)
		}
	}
	return out
}

// Deduped wraps a strategy so its output never repeats an ID.
func Deduped(next OrderingStrategy) OrderingStrategy {
	return OrderingFunc(func(results map[string]Result, keywords string) []Suggestible {
		return Dedupe(next.Order(results, keywords))
	})
}
