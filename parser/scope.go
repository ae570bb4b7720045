package parser

import (
	"fmt"
	"strings"

	"omibyte.io/rnn/database"
)

// scope is the naming and layout context of one element. Every start
// element pushes a modified copy of the enclosing scope.
type scope struct {
	domain     string
	prefix     string
	prefixType string
	stripe     string
	varset     *database.Enum
	array      *database.Array
	bitset     *database.Bitset
	bitSize    int
	enum       *database.Enum
}

func rootScope() scope {
	return scope{bitSize: 32}
}

// qualify returns the qualifying prefix of a declaration resolved to
// variant.
func (s *scope) qualify(variant string) string {
	switch {
	case s.prefixType == "variant" && variant != "":
		return variant
	case s.stripe != "":
		return s.stripe + "_" + s.domain
	case s.prefix != "":
		return s.prefix + "_" + s.domain
	default:
		return s.domain
	}
}

// variant resolves the variants attribute against the varset override in
// attrs or the enclosing varset. Only the first listed variant is used and
// ranges are cut at the dash.
func (p *Parser) variant(s *scope, attrs map[string]string) (string, error) {
	list, ok := attrs["variants"]
	if !ok {
		return "", nil
	}

	variant, _, _ := strings.Cut(list, ",")
	variant, _, _ = strings.Cut(strings.TrimSpace(variant), "-")

	varset := s.varset
	if name, ok := attrs["varset"]; ok {
		if varset, ok = p.db.Enum(name); !ok {
			return "", fmt.Errorf("%w '%s'", database.ErrUnknownVarset, name)
		}
	}
	if varset == nil {
		return "", fmt.Errorf("%w: '%s'", database.ErrNoVarset, list)
	}
	if !varset.Has(variant) {
		return "", fmt.Errorf("%w '%s' in varset %s", database.ErrUnknownVariant, variant, varset.Name)
	}
	return variant, nil
}
