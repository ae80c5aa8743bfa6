package usecase

import "strings"

// KeywordRule maps a detected keyword combination directly to one catalog
// product. These rules exist because generic similarity fails on heavily
// abbreviated receipt text ("MOZZ BTTRD THCK" carries almost no letters
// in common with the product it names). Rules are data, not code: adding
// a special case means appending a table entry.
type KeywordRule struct {
	// Keywords must all appear (case-insensitive) in the raw or the
	// normalized description for the rule to fire.
	Keywords []string
	// ProductKey is the canonical name of the catalog product the rule
	// resolves to. Rules whose key is absent from the snapshot are
	// skipped silently; catalogs differ between installations.
	ProductKey string
}

// DefaultKeywordRules is the ordered special-case table. First match wins.
func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{Keywords: []string{"mozz", "bttrd"}, ProductKey: "breaded mozzarella sticks"},
		{Keywords: []string{"mozz", "battered"}, ProductKey: "breaded mozzarella sticks"},
		{Keywords: []string{"chix", "tndr"}, ProductKey: "breaded chicken tenders"},
		{Keywords: []string{"chkn", "tender"}, ProductKey: "breaded chicken tenders"},
		{Keywords: []string{"fr", "fries", "crinkle"}, ProductKey: "crinkle cut french fries"},
		{Keywords: []string{"oj", "conc"}, ProductKey: "orange juice concentrate"},
		{Keywords: []string{"choc", "chp", "ckie"}, ProductKey: "chocolate chip cookie dough"},
	}
}

// matchKeywordRule returns the first rule whose keywords all appear in
// either of the given strings.
func matchKeywordRule(rules []KeywordRule, raw, normalized string) (KeywordRule, bool) {
	rawLower := strings.ToLower(raw)
	for _, rule := range rules {
		if keywordRuleFires(rule, rawLower) || keywordRuleFires(rule, normalized) {
			return rule, true
		}
	}
	return KeywordRule{}, false
}

func keywordRuleFires(rule KeywordRule, s string) bool {
	if len(rule.Keywords) == 0 {
		return false
	}
	for _, kw := range rule.Keywords {
		if !strings.Contains(s, kw) {
			return false
		}
	}
	return true
}
