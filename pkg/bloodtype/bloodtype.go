// Package bloodtype normalizes ABO/Rh labels and answers donor compatibility
// and rarity questions about them.
package bloodtype

import (
	"fmt"
	"regexp"
	"strings"
)

// Type is a canonical ABO/Rh label such as "O-" or "AB+".
type Type string

const (
	OPos  Type = "O+"
	ONeg  Type = "O-"
	APos  Type = "A+"
	ANeg  Type = "A-"
	BPos  Type = "B+"
	BNeg  Type = "B-"
	ABPos Type = "AB+"
	ABNeg Type = "AB-"
)

// All lists every canonical type, most common first.
var All = []Type{OPos, APos, BPos, ONeg, ANeg, ABPos, BNeg, ABNeg}

// Rarity groups blood types by how hard they are to source.
type Rarity string

const (
	Rare     Rarity = "rare"
	SemiRare Rarity = "semi_rare"
	Common   Rarity = "common"
)

var (
	separatorRe = regexp.MustCompile(`[\s_\-]+`)
	rhSuffixes  = []struct {
		suffix string
		sign   string
	}{
		{"positive", "+"},
		{"negative", "-"},
		{"pos", "+"},
		{"neg", "-"},
	}
)

// Normalize maps loose spellings ("o pos", "AB_NEGATIVE", " b+ ") onto a
// canonical Type.
func Normalize(raw string) (Type, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("empty blood type")
	}

	if strings.HasSuffix(s, "+") || strings.HasSuffix(s, "-") {
		sign := s[len(s)-1:]
		group := separatorRe.ReplaceAllString(s[:len(s)-1], "")
		return build(group, sign, raw)
	}

	compact := separatorRe.ReplaceAllString(s, "")
	for _, rh := range rhSuffixes {
		if strings.HasSuffix(compact, rh.suffix) {
			return build(strings.TrimSuffix(compact, rh.suffix), rh.sign, raw)
		}
	}
	return "", fmt.Errorf("unrecognised blood type %q", raw)
}

func build(group, sign, raw string) (Type, error) {
	switch group {
	case "o", "a", "b", "ab":
		return Type(strings.ToUpper(group) + sign), nil
	}
	return "", fmt.Errorf("unrecognised blood type %q", raw)
}

// MustNormalize is Normalize for literals known to be valid.
func MustNormalize(raw string) Type {
	t, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether t is one of the eight canonical types.
func (t Type) Valid() bool {
	for _, c := range All {
		if c == t {
			return true
		}
	}
	return false
}

func (t Type) String() string { return string(t) }

// RarityOf classifies a blood type. Unknown labels are treated as common.
func RarityOf(t Type) Rarity {
	switch t {
	case ONeg, ABNeg:
		return Rare
	case ANeg, BNeg, ABPos:
		return SemiRare
	default:
		return Common
	}
}

// IsRare reports whether t uses the stricter stock thresholds.
func IsRare(t Type) bool {
	return RarityOf(t) == Rare
}

// red cell donor -> recipients
var canDonateTo = map[Type][]Type{
	ONeg:  All,
	OPos:  {OPos, APos, BPos, ABPos},
	ANeg:  {ANeg, APos, ABNeg, ABPos},
	APos:  {APos, ABPos},
	BNeg:  {BNeg, BPos, ABNeg, ABPos},
	BPos:  {BPos, ABPos},
	ABNeg: {ABNeg, ABPos},
	ABPos: {ABPos},
}

// CanDonate reports whether red cells of type donor can be given to recipient.
func CanDonate(donor, recipient Type) bool {
	for _, r := range canDonateTo[donor] {
		if r == recipient {
			return true
		}
	}
	return false
}

// CompatibleDonors returns the donor types that can supply recipient.
func CompatibleDonors(recipient Type) []Type {
	var out []Type
	for _, d := range All {
		if CanDonate(d, recipient) {
			out = append(out, d)
		}
	}
	return out
}
