package certgen

import (
	"fmt"
	"strings"
)

// Kind is one certificate template the backend can render.
type Kind int

const (
	KindOSHA Kind = iota + 1
	KindNCCER
	KindHammerMath
	KindEmployability
	KindWorkforce
	KindPortfolio
)

var allKinds = []Kind{KindOSHA, KindNCCER, KindHammerMath, KindEmployability, KindWorkforce, KindPortfolio}

func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Slug is the endpoint segment under /api/generate/.
func (k Kind) Slug() string {
	switch k {
	case KindOSHA:
		return "osha"
	case KindNCCER:
		return "nccer"
	case KindHammerMath:
		return "hammermath"
	case KindEmployability:
		return "employability"
	case KindWorkforce:
		return "workforce"
	case KindPortfolio:
		return "portfolio"
	}
	return ""
}

func (k Kind) Label() string {
	switch k {
	case KindOSHA:
		return "OSHA"
	case KindNCCER:
		return "NCCER"
	case KindHammerMath:
		return "HammerMath"
	case KindEmployability:
		return "Employability"
	case KindWorkforce:
		return "Workforce (50-hour)"
	case KindPortfolio:
		return "Portfolio"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) String() string {
	return k.Label()
}

// ParseKind accepts a slug or a label in any case.
func ParseKind(raw string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for _, k := range allKinds {
		if needle == k.Slug() || needle == strings.ToLower(k.Label()) {
			return k, nil
		}
	}
	if needle == "50-hour" || needle == "50hour" {
		return KindWorkforce, nil
	}
	return 0, fmt.Errorf("unknown certificate kind %q", raw)
}

// Selection is the set of kinds the user ticked.
type Selection map[Kind]bool

// DefaultSelection preselects OSHA and HammerMath.
func DefaultSelection() Selection {
	return Selection{KindOSHA: true, KindHammerMath: true}
}

func SelectionOf(kinds ...Kind) Selection {
	s := Selection{}
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// Kinds returns the selected kinds in canonical order.
func (s Selection) Kinds() []Kind {
	var out []Kind
	for _, k := range allKinds {
		if s[k] {
			out = append(out, k)
		}
	}
	return out
}
