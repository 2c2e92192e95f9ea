package rules

// DefaultForbiddenPhrases lists filler wording that makes a requirement
// unverifiable. A brief full of these cannot be turned into tests.
var DefaultForbiddenPhrases = []string{
	"as needed",
	"as appropriate",
	"TBD",
	"to be determined",
	"and so on",
	"handle errors appropriately",
	"reasonably fast",
	"user friendly",
	"best effort",
}
