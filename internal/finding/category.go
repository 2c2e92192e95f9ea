package finding

import "fmt"

// Category groups findings by the aspect of the brief they concern.
type Category string

const (
	// CategoryStructure covers the section skeleton of a brief.
	CategoryStructure Category = "structure"

	// CategoryContent covers the prose inside sections.
	CategoryContent Category = "content"

	// CategoryBoilerplate covers the shared setup/deliverable block.
	CategoryBoilerplate Category = "boilerplate"

	// CategoryCorpus covers cross-document properties.
	CategoryCorpus Category = "corpus"
)

var knownCategories = map[Category]struct{}{
	CategoryStructure:   {},
	CategoryContent:     {},
	CategoryBoilerplate: {},
	CategoryCorpus:      {},
}

// IsValid reports whether the category is recognized.
func (c Category) IsValid() bool {
	_, ok := knownCategories[c]
	return ok
}

// String returns the string form of the category.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a string into a Category or fails.
func ParseCategory(value string) (Category, error) {
	c := Category(value)
	if !c.IsValid() {
		return "", fmt.Errorf("finding: invalid category %q", value)
	}
	return c, nil
}
