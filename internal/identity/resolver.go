package identity

import (
	"strings"

	"github.com/curator/console/internal/refdata"
)

// Badge classifies the operator who performed an action.
type Badge string

const (
	BadgeOwner   Badge = "owner"
	BadgeFormer  Badge = "former"
	BadgeAdmin   Badge = "admin"
	BadgeUnknown Badge = "unknown"
)

// Kind selects which reference list a lookup runs against.
type Kind int

const (
	KindOperator Kind = iota
	KindGroup
)

// minFragment is the shortest nickname fragment worth matching; anything
// shorter yields no verdict.
const minFragment = 2

// Resolver resolves QQ/nickname pairs against the reference lists. It holds
// no state beyond the injected configuration.
type Resolver struct {
	ref *refdata.Config
}

func NewResolver(ref *refdata.Config) *Resolver {
	return &Resolver{ref: ref}
}

// Nickname returns the reference nickname for an identifier, if any.
func (r *Resolver) Nickname(kind Kind, id string) (string, bool) {
	if kind == KindGroup {
		return r.ref.GroupNickname(id)
	}
	return r.ref.OperatorNickname(id)
}

// LookupFragment resolves a free-text nickname fragment to an identifier.
// An entry whose nickname starts with the fragment wins immediately and
// short-circuits the scan; absent a starts-with hit, the first entry whose
// nickname merely contains the fragment is chosen. Fragments shorter than
// two characters never match.
func (r *Resolver) LookupFragment(kind Kind, fragment string) (id, nickname string, ok bool) {
	if len([]rune(fragment)) < minFragment {
		return "", "", false
	}

	entries := r.ref.Operators
	if kind == KindGroup {
		entries = r.ref.Groups
	}

	var contained *refdata.Entry
	for i, e := range entries {
		if strings.HasPrefix(e.Nickname, fragment) {
			return e.ID, e.Nickname, true
		}
		if contained == nil && strings.Contains(e.Nickname, fragment) {
			contained = &entries[i]
		}
	}
	if contained != nil {
		return contained.ID, contained.Nickname, true
	}
	return "", "", false
}

// ResolveBadge classifies an operator id by fixed precedence: owner, then
// former operator, then listed admin, then unknown (externally elevated
// actors show up here).
func (r *Resolver) ResolveBadge(id string) Badge {
	switch {
	case id == r.ref.Owner:
		return BadgeOwner
	case r.ref.IsFormerOperator(id):
		return BadgeFormer
	case r.ref.IsActiveOperator(id):
		return BadgeAdmin
	default:
		return BadgeUnknown
	}
}
