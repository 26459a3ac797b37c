// Package suppress resolves suppression directives of a unit and marks the
// diagnostics they cover. Suppressed diagnostics are kept, only flagged.
//
// Recognised directives:
//
//	@SuppressWarnings("rule-id")             on any declaration
//	@SuppressWarnings({"a", "lintel:b"})     several ids, optional prefix
//	@SuppressWarnings("all")                 every rule
//	// lintel:ignore [rule-id, ...]          the next declaration
//	// lintel:ignore-file [rule-id, ...]     the whole unit
package suppress

import (
	"regexp"
	"strconv"
	"strings"

	"lintel/internal/diag"
	"lintel/internal/tree"
)

const (
	prefix   = "lintel:"
	wildcard = "*"
)

type ruleSet map[string]bool

func (s ruleSet) covers(id string) bool { return s[wildcard] || s[id] }

func (s ruleSet) add(id string) {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, prefix)
	switch id {
	case "":
		return
	case "all":
		id = wildcard
	}
	s[id] = true
}

// Scope maps declarations to the rule ids suppressed inside them.
type Scope struct {
	unit   *tree.Unit
	byNode map[tree.NodeID]ruleSet
}

// Build scans annotations and comments of u.
func Build(u *tree.Unit) *Scope {
	s := &Scope{unit: u, byNode: make(map[tree.NodeID]ruleSet)}
	u.Walk(u.Root(), func(id tree.NodeID) bool {
		for _, ann := range u.Annotations(id) {
			if isSuppressWarnings(u.Node(ann).Text) {
				s.collectAnnotation(id, ann)
			}
		}
		return true
	})
	for _, c := range u.Comments() {
		m := directiveRe.FindStringSubmatch(commentBody(c.Text))
		if m == nil {
			continue
		}
		target := u.Root()
		if m[1] == "ignore" {
			target = s.nextDecl(c)
			if !target.IsValid() {
				continue
			}
		}
		set := s.set(target)
		ids := strings.FieldsFunc(m[2], func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
		if len(ids) == 0 {
			set.add(wildcard)
		}
		for _, id := range ids {
			set.add(id)
		}
	}
	return s
}

var directiveRe = regexp.MustCompile(`^lintel:(ignore-file|ignore)\b(.*)$`)

func isSuppressWarnings(name string) bool {
	return name == "SuppressWarnings" || name == "java.lang.SuppressWarnings"
}

func commentBody(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "//"):
		text = text[2:]
	case strings.HasPrefix(text, "/*"):
		text = strings.TrimSuffix(text[2:], "*/")
		text = strings.TrimLeft(text, "*")
	}
	return strings.TrimSpace(text)
}

func (s *Scope) set(id tree.NodeID) ruleSet {
	set, ok := s.byNode[id]
	if !ok {
		set = make(ruleSet)
		s.byNode[id] = set
	}
	return set
}

func (s *Scope) collectAnnotation(decl, ann tree.NodeID) {
	u := s.unit
	set := s.set(decl)
	u.Walk(ann, func(id tree.NodeID) bool {
		n := u.Node(id)
		if n.Kind == tree.KindLiteral && n.Lit == tree.LitString {
			if v, err := strconv.Unquote(n.Text); err == nil {
				set.add(v)
			} else {
				set.add(strings.Trim(n.Text, `"`))
			}
		}
		return true
	})
}

// nextDecl returns the outermost declaration starting after comment c.
func (s *Scope) nextDecl(c tree.Comment) tree.NodeID {
	u := s.unit
	best := tree.NoNodeID
	var bestStart uint32
	u.Walk(u.Root(), func(id tree.NodeID) bool {
		n := u.Node(id)
		if n.Span.End <= c.Span.End {
			return false
		}
		if n.Kind.IsDecl() && n.Kind != tree.KindParam && n.Span.Start >= c.Span.End {
			if !best.IsValid() || n.Span.Start < bestStart {
				best, bestStart = id, n.Span.Start
			}
			return false
		}
		return true
	})
	return best
}

// Len returns the number of declarations carrying a directive.
func (s *Scope) Len() int { return len(s.byNode) }

// Suppresses reports whether d falls under a directive for its rule id.
// Engine diagnostics are never suppressed.
func (s *Scope) Suppresses(d *diag.Diagnostic) bool {
	if len(s.byNode) == 0 || d.RuleID == diag.RuleParseFailure || d.RuleID == diag.RuleRuleFailure {
		return false
	}
	if d.Primary.File != s.unit.File().ID {
		return false
	}
	id := s.unit.Covering(d.Primary)
	if !id.IsValid() {
		id = s.unit.Root()
	}
	for ; id.IsValid(); id = s.unit.Parent(id) {
		if set, ok := s.byNode[id]; ok && set.covers(d.RuleID) {
			return true
		}
	}
	return false
}

// Apply returns a copy of diags with Suppressed set where a directive applies.
func (s *Scope) Apply(diags []diag.Diagnostic) []diag.Diagnostic {
	out := make([]diag.Diagnostic, len(diags))
	copy(out, diags)
	for i := range out {
		if !out[i].Suppressed && s.Suppresses(&out[i]) {
			out[i].Suppressed = true
		}
	}
	return out
}
