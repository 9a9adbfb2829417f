package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chatterfeed/pkg/models"
)

// Aggregator composes feed pages from candidate activity items: it merges
// originals and reposts into one stream, resolves message content and
// engagement counts, applies filters and the requested sort, and assembles
// view-models.
type Aggregator struct {
	store           Store
	defaultPageSize int
	maxPageSize     int
}

// NewAggregator creates a feed aggregator over the given store with the
// package-default page size bounds.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{
		store:           store,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
}

// SetPageSizeLimits overrides the page size bounds, typically from deployment
// config. Non-positive or inconsistent values are ignored.
func (a *Aggregator) SetPageSizeLimits(defaultSize, maxSize int) {
	if defaultSize <= 0 || maxSize <= 0 || defaultSize > maxSize {
		return
	}
	a.defaultPageSize = defaultSize
	a.maxPageSize = maxSize
}

// GetPage returns one page of the feed for the given scope and filters.
// An empty scope result is a legitimate empty page, never an error.
func (a *Aggregator) GetPage(ctx context.Context, scope Scope, filters Filters) (*Page, error) {
	pageSize := a.clampPageSize(filters.PageSize)

	originals, err := a.store.ListOriginals(ctx, scope, filters.Cursor, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list original chats: %w", err)
	}

	reposts, err := a.store.ListReposts(ctx, scope, filters.Cursor, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list reposts: %w", err)
	}

	// Merge-then-truncate: a page can under-represent one source when the
	// other dominates recency. The cursor still advances through both.
	merged := mergeEntries(originals, reposts, pageSize)

	// The cursor is computed from the pre-filter page so that filtered-out
	// entries are still paged past on the next request.
	var nextCursor *time.Time
	if len(merged) == pageSize && pageSize > 0 {
		last := merged[len(merged)-1].Timestamp
		nextCursor = &last
	}

	if len(merged) == 0 {
		return &Page{Items: make([]ItemView, 0), NextCursor: nil}, nil
	}

	chatIDs := distinctChatIDs(merged)

	firstMessages, err := a.store.FirstUserMessages(ctx, chatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load first messages: %w", err)
	}

	messageCounts, err := a.store.UserMessageCounts(ctx, chatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	bodies := make(map[string]string, len(firstMessages))
	for chatID, msg := range firstMessages {
		bodies[chatID] = BodyText(msg)
	}

	entries := filterEntries(merged, bodies, filters)
	if len(entries) == 0 {
		return &Page{Items: make([]ItemView, 0), NextCursor: nextCursor}, nil
	}

	filteredIDs := distinctChatIDs(entries)

	voteCounts, err := a.store.VoteCounts(ctx, filteredIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	repostCounts, err := a.store.RepostCounts(ctx, filteredIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count reposts: %w", err)
	}

	if filters.Sort != SortDate {
		sortByRating(entries, voteCounts)
	}

	authors, err := a.store.Authors(ctx, distinctUserIDs(entries))
	if err != nil {
		// A page with placeholder author labels beats no page at all.
		log.Warn().Err(err).Msg("failed to resolve feed authors")
		authors = map[int64]*models.User{}
	}

	items := make([]ItemView, 0, len(entries))
	for _, entry := range entries {
		items = append(items, buildItem(entry, firstMessages[entry.ChatID], messageCounts, voteCounts, repostCounts, authors))
	}

	return &Page{Items: items, NextCursor: nextCursor}, nil
}

func (a *Aggregator) clampPageSize(size int) int {
	if size <= 0 {
		return a.defaultPageSize
	}
	if size > a.maxPageSize {
		return a.maxPageSize
	}
	return size
}

// mergeEntries interleaves the two candidate lists into one stream ordered by
// each entry's own timestamp descending, truncated to limit.
func mergeEntries(originals, reposts []Entry, limit int) []Entry {
	merged := make([]Entry, 0, len(originals)+len(reposts))
	merged = append(merged, originals...)
	merged = append(merged, reposts...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// sortByRating orders entries by upvote count descending, breaking ties by
// timestamp descending.
func sortByRating(entries []Entry, voteCounts map[string]int) {
	sort.SliceStable(entries, func(i, j int) bool {
		vi, vj := voteCounts[entries[i].ChatID], voteCounts[entries[j].ChatID]
		if vi != vj {
			return vi > vj
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

func distinctChatIDs(entries []Entry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.ChatID]; ok {
			continue
		}
		seen[entry.ChatID] = struct{}{}
		ids = append(ids, entry.ChatID)
	}
	return ids
}

func distinctUserIDs(entries []Entry) []int64 {
	seen := make(map[int64]struct{}, len(entries))
	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		for _, id := range []int64{entry.AuthorID, entry.ReposterID} {
			if id == 0 {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func buildItem(entry Entry, firstMsg *models.Message, messageCounts, voteCounts, repostCounts map[string]int, authors map[int64]*models.User) ItemView {
	// The first user message is the chat body itself, so only messages beyond
	// it count as comments.
	comments := messageCounts[entry.ChatID] - 1
	if comments < 0 {
		comments = 0
	}

	hashtags := entry.Hashtags
	if hashtags == nil {
		hashtags = make([]string, 0)
	}

	item := ItemView{
		ChatID:        entry.ChatID,
		CreatedAt:     entry.Timestamp,
		Text:          BodyText(firstMsg),
		ImageURL:      ImageURL(firstMsg),
		Upvotes:       voteCounts[entry.ChatID],
		Reposts:       repostCounts[entry.ChatID],
		CommentsCount: comments,
		Hashtags:      hashtags,
		IsRepost:      entry.IsRepost,
	}

	if firstMsg != nil {
		item.FirstMessageID = firstMsg.ID
	}

	author := authors[entry.AuthorID]
	item.Author = DisplayName(author, entry.AuthorID)
	if author != nil {
		href := "/u/" + ProfileSlug(author)
		item.AuthorHref = &href
	}

	if entry.IsRepost {
		reposter := authors[entry.ReposterID]
		name := DisplayName(reposter, entry.ReposterID)
		item.RepostedBy = &name
		if reposter != nil {
			href := "/u/" + ProfileSlug(reposter)
			item.RepostedByHref = &href
		}
	}

	return item
}
