package canvas

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/voxkit/flowsync/pkg/flow"
)

// layoutCacheSize bounds how many agents' layouts are retained at once.
const layoutCacheSize = 128

// LayoutCache retains last-known node positions for flow formats that do
// not persist coordinates (the lifted legacy format). Positions are keyed
// by node id with a name fallback, so a rename (id stable) and an id churn
// on save (name stable) each survive independently.
type LayoutCache struct {
	cache *lru.Cache[string, layoutSnapshot]
}

type layoutSnapshot struct {
	byID   map[string]flow.Position
	byName map[string]flow.Position
}

// NewLayoutCache builds an empty cache.
func NewLayoutCache() (*LayoutCache, error) {
	c, err := lru.New[string, layoutSnapshot](layoutCacheSize)
	if err != nil {
		return nil, err
	}
	return &LayoutCache{cache: c}, nil
}

// Capture records the current position of every non-synthetic node under
// the given agent key. Call it immediately before a save whose response
// will rebuild the node set.
func (c *LayoutCache) Capture(agentID string, g *Graph) {
	snap := layoutSnapshot{
		byID:   make(map[string]flow.Position, len(g.Nodes)),
		byName: make(map[string]flow.Position, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		if n.ID == EntryNodeID {
			continue
		}
		snap.byID[n.ID] = n.Position
		if n.Name != "" {
			snap.byName[n.Name] = n.Position
		}
	}
	c.cache.Add(agentID, snap)
}

// Restore applies cached positions to a freshly rebuilt graph, matching by
// id first and name second. Nodes matching neither keep the position the
// adapter assigned; a miss is expected for new nodes, not an error.
func (c *LayoutCache) Restore(agentID string, g *Graph) {
	snap, ok := c.cache.Get(agentID)
	if !ok {
		return
	}
	for _, n := range g.Nodes {
		if n.ID == EntryNodeID {
			continue
		}
		if p, ok := snap.byID[n.ID]; ok {
			n.Position = p
			continue
		}
		if p, ok := snap.byName[n.Name]; ok && n.Name != "" {
			n.Position = p
		}
	}
}
