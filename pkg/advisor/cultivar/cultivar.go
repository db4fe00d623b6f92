package cultivar

import "strings"

// Sentinel labels returned by classification when no single concrete
// cultivar can be named.
const (
	GeneralInformation = "general information"
	Undetermined       = "undetermined"
)

// Plant families known to the advisory domain.
const (
	FamilyStrawberry  = "strawberry"
	FamilyRaspberry   = "raspberry"
	FamilyCurrant     = "currant"
	FamilyBlueberry   = "blueberry"
	FamilyHoneysuckle = "honeysuckle"
	FamilyGooseberry  = "gooseberry"
	FamilyBlackberry  = "blackberry"
)

// Bearing-type qualifiers. Only strawberry and raspberry carry a qualifier;
// the remaining families are single-label cultivars.
const (
	QualifierGeneral       = "general"
	QualifierSummerBearing = "summer-bearing"
	QualifierRemontant     = "remontant"
)

// qualifiedFamilies are families whose label must be disambiguated into
// summer-bearing vs remontant before retrieval makes sense.
var qualifiedFamilies = map[string]bool{
	FamilyStrawberry: true,
	FamilyRaspberry:  true,
}

// familyKeywords maps a family to the substrings that identify it in free
// text. Matching is lowercase substring matching, so singular/plural and
// most inflections are covered.
var familyKeywords = map[string][]string{
	FamilyStrawberry:  {"strawberr", "fragaria"},
	FamilyRaspberry:   {"raspberr", "rubus idaeus"},
	FamilyCurrant:     {"currant", "cassis"},
	FamilyBlueberry:   {"blueberr", "vaccinium"},
	FamilyHoneysuckle: {"honeysuckle", "honeyberr", "haskap"},
	FamilyGooseberry:  {"gooseberr"},
	FamilyBlackberry:  {"blackberr"},
}

// remontantWords and summerWords identify the bearing type in free text.
var remontantWords = []string{
	"remontant", "everbear", "ever-bear", "day-neutral", "day neutral",
	"fall-bearing", "fall bearing", "autumn-bearing", "autumn bearing",
}

var summerWords = []string{
	"summer-bearing", "summer bearing", "june-bearing", "june bearing",
	"ordinary", "traditional", "single-crop", "one-time", "short-day",
}

// genericBerryWords mark a text as plant-related even when no concrete
// family is named.
var genericBerryWords = []string{"berry", "berries", "bush", "shrub", "cane"}

// Qualified builds the canonical label for a family plus qualifier, e.g.
// ("strawberry", "remontant") -> "strawberry, remontant". Families that do
// not carry a qualifier are returned as-is.
func Qualified(family, qualifier string) string {
	if !qualifiedFamilies[family] {
		return family
	}
	return family + ", " + qualifier
}

// FamilyOf extracts the family part of a label. Sentinels map to "".
func FamilyOf(label string) string {
	if IsSentinel(label) || label == "" {
		return ""
	}
	if idx := strings.Index(label, ","); idx >= 0 {
		return strings.TrimSpace(label[:idx])
	}
	return strings.TrimSpace(label)
}

// IsSentinel reports whether label is one of the non-cultivar outcomes.
func IsSentinel(label string) bool {
	return label == GeneralInformation || label == Undetermined
}

// NeedsTypeClarification reports whether label is a family-general label
// such as "strawberry, general": a real family was named but the bearing
// type is still unknown, so the fixed disambiguation question applies.
func NeedsTypeClarification(label string) bool {
	family := FamilyOf(label)
	return qualifiedFamilies[family] && strings.HasSuffix(label, ", "+QualifierGeneral)
}

// IsSpecific reports whether label is concrete enough to filter retrieval:
// not a sentinel and not awaiting the bearing-type disambiguation.
func IsSpecific(label string) bool {
	if label == "" || IsSentinel(label) {
		return false
	}
	return !NeedsTypeClarification(label)
}

// GeneralLabel maps a qualified label to its family-general form:
// "raspberry, remontant" -> "raspberry, general". Unqualified families and
// sentinels are returned unchanged.
func GeneralLabel(label string) string {
	family := FamilyOf(label)
	if family == "" || !qualifiedFamilies[family] {
		return label
	}
	return Qualified(family, QualifierGeneral)
}

// Families returns the known family names in stable order.
func Families() []string {
	return []string{
		FamilyStrawberry, FamilyRaspberry, FamilyCurrant, FamilyBlueberry,
		FamilyHoneysuckle, FamilyGooseberry, FamilyBlackberry,
	}
}

// KnownLabels returns every canonical cultivar label, used to seed
// classifier prompts when the knowledge base is still empty.
func KnownLabels() []string {
	labels := make([]string, 0, 16)
	for _, f := range Families() {
		if qualifiedFamilies[f] {
			labels = append(labels,
				Qualified(f, QualifierGeneral),
				Qualified(f, QualifierSummerBearing),
				Qualified(f, QualifierRemontant),
			)
		} else {
			labels = append(labels, f)
		}
	}
	return labels
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// QualifierFromText reads a bearing-type answer ("ordinary", "remontant",
// "june-bearing" ...) and returns the canonical qualifier, or "" when the
// answer does not resolve it. Remontant synonyms win over summer synonyms
// because "summer" alone is the weaker signal.
func QualifierFromText(text string) string {
	t := strings.ToLower(text)
	if containsAny(t, remontantWords) {
		return QualifierRemontant
	}
	if containsAny(t, summerWords) || strings.Contains(t, "summer") {
		return QualifierSummerBearing
	}
	return ""
}

// DetectKeyword is the deterministic classification fallback. It pattern
// matches family and qualifier substrings and returns a conservative label:
//
//   - exactly one family found: that family's label, qualified when the
//     text also names a bearing type;
//   - two or more distinct families: "general information";
//   - no family but generic berry/bush/qualifier words: "general
//     information" (a qualifier alone never invents a family);
//   - nothing recognized: "undetermined".
func DetectKeyword(text string) string {
	if strings.TrimSpace(text) == "" {
		return Undetermined
	}
	t := strings.ToLower(text)

	candidates := make([]string, 0, 2)
	for _, family := range Families() {
		if !containsAny(t, familyKeywords[family]) {
			continue
		}
		if !qualifiedFamilies[family] {
			candidates = append(candidates, family)
			continue
		}
		switch QualifierFromText(t) {
		case QualifierRemontant:
			candidates = append(candidates, Qualified(family, QualifierRemontant))
		case QualifierSummerBearing:
			candidates = append(candidates, Qualified(family, QualifierSummerBearing))
		default:
			candidates = append(candidates, Qualified(family, QualifierGeneral))
		}
	}

	if len(candidates) > 1 {
		return GeneralInformation
	}
	if len(candidates) == 1 {
		return candidates[0]
	}
	if containsAny(t, genericBerryWords) || QualifierFromText(t) != "" {
		return GeneralInformation
	}
	return Undetermined
}
