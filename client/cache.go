package client

import (
	"sync"

	"projectboard/internal/model"
)

// Tag associates cached query results with the entities they contain.
// Mutations declare the tags they invalidate; every cached query carrying an
// invalidated tag is marked stale and refetched on next access.
type Tag struct {
	Type string
	ID   int
}

// typeTag matches every entry of a type regardless of id, used by mutations
// that change list membership (create, delete).
func typeTag(entityType string) Tag {
	return Tag{Type: entityType}
}

type cacheEntry struct {
	tasks []model.Task
	tags  map[Tag]bool
	stale bool
}

// queryCache is the in-process normalized cache keyed by endpoint +
// serialized parameters.
type queryCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	tagIndex map[Tag]map[string]bool
}

func newQueryCache() *queryCache {
	return &queryCache{
		entries:  make(map[string]*cacheEntry),
		tagIndex: make(map[Tag]map[string]bool),
	}
}

// get returns the cached tasks and whether the entry is fresh. Stale entries
// report false so callers refetch.
func (c *queryCache) get(key string) ([]model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || entry.stale {
		return nil, false
	}
	return entry.tasks, true
}

func (c *queryCache) set(key string, tasks []model.Task, tags []Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		for tag := range old.tags {
			delete(c.tagIndex[tag], key)
		}
	}

	entry := &cacheEntry{
		tasks: tasks,
		tags:  make(map[Tag]bool, len(tags)),
	}
	for _, tag := range tags {
		entry.tags[tag] = true
		if c.tagIndex[tag] == nil {
			c.tagIndex[tag] = make(map[string]bool)
		}
		c.tagIndex[tag][key] = true
	}
	c.entries[key] = entry
}

// invalidate marks every entry carrying any of the tags as stale. A tag with
// a zero ID invalidates every entry of that type.
func (c *queryCache) invalidate(tags ...Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tag := range tags {
		if tag.ID == 0 {
			for key, entry := range c.entries {
				for t := range entry.tags {
					if t.Type == tag.Type {
						c.entries[key].stale = true
						break
					}
				}
			}
			continue
		}
		for key := range c.tagIndex[tag] {
			if entry, ok := c.entries[key]; ok {
				entry.stale = true
			}
		}
	}
}

// taskTags derives the providing tags for a task list result, one per task.
func taskTags(tasks []model.Task) []Tag {
	tags := make([]Tag, 0, len(tasks)+1)
	tags = append(tags, typeTag("Tasks"))
	for _, t := range tasks {
		tags = append(tags, Tag{Type: "Tasks", ID: t.ID})
	}
	return tags
}
