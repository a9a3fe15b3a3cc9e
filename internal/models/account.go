package models

import (
	"regexp"
	"strings"
	"unicode"
)

var accountPathRegex = regexp.MustCompile(`^[A-Z][A-Za-z]*(?::[A-Z][A-Za-z]*)*$`)

// AccountPath is a colon-delimited hierarchical account name such as
// Expenses:Personal:Food:Coffee.
type AccountPath string

// IsValid reports whether the path matches the PascalCase segment grammar.
func (p AccountPath) IsValid() bool {
	return accountPathRegex.MatchString(string(p))
}

// Segments splits the path on colons.
func (p AccountPath) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), ":")
}

// Root returns the first segment.
func (p AccountPath) Root() string {
	segs := p.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}

// Child appends one more level to the path.
func (p AccountPath) Child(segment string) AccountPath {
	if p == "" {
		return AccountPath(segment)
	}
	return AccountPath(string(p) + ":" + segment)
}

// HasPrefix reports whether p starts with the given root, case-insensitively.
func (p AccountPath) HasPrefix(root string) bool {
	return strings.HasPrefix(strings.ToLower(string(p)), strings.ToLower(root))
}

func (p AccountPath) String() string {
	return string(p)
}

// ToSegment turns free text ("my brick", "pizza-hut") into a single PascalCase
// account segment ("MyBrick", "PizzaHut"). Non-letters are dropped.
func ToSegment(text string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range text {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TypeForRoot derives the account type from a path's root segment.
func TypeForRoot(p AccountPath) (AccountType, bool) {
	switch p.Root() {
	case RootExpenses:
		return AccountTypeExpense, true
	case RootAssets:
		return AccountTypeAsset, true
	case RootLiabilities:
		return AccountTypeLiability, true
	case RootIncome:
		return AccountTypeIncome, true
	case RootEquity:
		return AccountTypeEquity, true
	}
	return "", false
}
