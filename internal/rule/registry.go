package rule

import (
	"fmt"
	"sort"
	"sync"

	"lintel/internal/diag"
	"lintel/internal/tree"
	"lintel/internal/walk"
)

// Registry holds every known rule descriptor.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Descriptor)}
}

// Register adds d. Duplicate or engine-reserved ids are programming errors.
func (r *Registry) Register(d Descriptor) {
	if d.ID == "" || d.New == nil {
		panic(fmt.Sprintf("rule: incomplete descriptor %q", d.ID))
	}
	if d.ID == diag.RuleParseFailure || d.ID == diag.RuleRuleFailure {
		panic(fmt.Sprintf("rule: id %q is reserved", d.ID))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[d.ID]; dup {
		panic(fmt.Sprintf("rule: duplicate id %q", d.ID))
	}
	r.byID[d.ID] = &d
}

// Lookup finds a descriptor by id.
func (r *Registry) Lookup(id string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// All returns descriptors sorted by id.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	out := make([]*Descriptor, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, d)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Subscribers instantiates every enabled rule for u, in id order.
func (r *Registry) Subscribers(u *tree.Unit, cfg *Config, rep diag.Reporter) []walk.Subscriber {
	all := r.All()
	subs := make([]walk.Subscriber, 0, len(all))
	for _, d := range all {
		eff := cfg.Effective(d)
		if !eff.Enabled {
			continue
		}
		v := d.New(NewSetup(u, d.ID, eff, rep))
		if v == nil {
			continue
		}
		kinds := d.Kinds
		if kinds.Empty() {
			kinds = tree.AllKinds()
		}
		subs = append(subs, walk.Subscriber{RuleID: d.ID, Kinds: kinds, Visitor: v})
	}
	return subs
}

// Enabled returns the ids that would run under cfg.
func (r *Registry) Enabled(cfg *Config) []string {
	var ids []string
	for _, d := range r.All() {
		if cfg.Effective(d).Enabled {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

