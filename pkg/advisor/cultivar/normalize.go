package cultivar

import (
	"regexp"
	"strings"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	nonLetterRe  = regexp.MustCompile(`[^a-zA-Z\s\-,]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Cleanup aggressively sanitizes a raw model answer before label matching:
// newlines flattened, HTML/markdown noise removed, only the first sentence
// kept, lowercased, capped in length.
func Cleanup(raw string) string {
	if raw == "" {
		return ""
	}
	text := strings.NewReplacer("\r", " ", "\n", " ").Replace(raw)
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = strings.NewReplacer(
		"**", " ", "__", " ", `"`, " ", "'", " ", "`", " ",
	).Replace(text)

	if idx := strings.IndexAny(text, ".!?"); idx >= 0 {
		text = text[:idx]
	}
	text = nonLetterRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if len(text) > 200 {
		text = strings.TrimSpace(text[:200])
	}
	return strings.ToLower(text)
}

// aliasOrder keeps substring matching deterministic: longer, more specific
// aliases are checked before their prefixes ("strawberry, remontant"
// before "strawberry").
var aliasOrder = []struct {
	alias string
	label string
}{
	{"strawberry, remontant", "strawberry, remontant"},
	{"remontant strawberry", "strawberry, remontant"},
	{"everbearing strawberry", "strawberry, remontant"},
	{"day-neutral strawberry", "strawberry, remontant"},
	{"strawberry, summer-bearing", "strawberry, summer-bearing"},
	{"strawberry, summer", "strawberry, summer-bearing"},
	{"june-bearing strawberry", "strawberry, summer-bearing"},
	{"summer strawberry", "strawberry, summer-bearing"},
	{"ordinary strawberry", "strawberry, summer-bearing"},
	{"garden strawberry", "strawberry, general"},
	{"strawberry", "strawberry, general"},

	{"raspberry, remontant", "raspberry, remontant"},
	{"remontant raspberry", "raspberry, remontant"},
	{"everbearing raspberry", "raspberry, remontant"},
	{"fall-bearing raspberry", "raspberry, remontant"},
	{"raspberry, summer-bearing", "raspberry, summer-bearing"},
	{"raspberry, summer", "raspberry, summer-bearing"},
	{"summer raspberry", "raspberry, summer-bearing"},
	{"ordinary raspberry", "raspberry, summer-bearing"},
	{"raspberry", "raspberry, general"},

	{"blackcurrant", FamilyCurrant},
	{"black currant", FamilyCurrant},
	{"red currant", FamilyCurrant},
	{"redcurrant", FamilyCurrant},
	{"white currant", FamilyCurrant},
	{"currant", FamilyCurrant},

	{"blueberry", FamilyBlueberry},
	{"honeyberry", FamilyHoneysuckle},
	{"haskap", FamilyHoneysuckle},
	{"honeysuckle", FamilyHoneysuckle},
	{"gooseberry", FamilyGooseberry},
	{"blackberry", FamilyBlackberry},

	{"general information", GeneralInformation},
	{"general", GeneralInformation},
	{"undetermined", Undetermined},
	{"unknown", Undetermined},
	{"not determined", Undetermined},
}

// Normalize maps a cleaned model answer to a canonical cultivar label.
// Unknown but short answers (1-4 words) are accepted verbatim so genuinely
// new cultivars coming from the knowledge base survive; anything longer is
// treated as noise and collapses to "undetermined".
func Normalize(raw string) string {
	text := Cleanup(raw)
	if text == "" {
		return Undetermined
	}
	if text == GeneralInformation || text == Undetermined {
		return text
	}
	for _, entry := range aliasOrder {
		if strings.Contains(text, entry.alias) {
			return entry.label
		}
	}
	if words := strings.Fields(text); len(words) >= 1 && len(words) <= 4 {
		return strings.Join(words, " ")
	}
	return Undetermined
}
