package engine

import "strings"

// Static phrase tables driving deterministic dispatch. All matching is
// substring containment over normalized lowercase text; fuzzy matching is
// reserved for the single typo-tolerant "overwhelmed" check in topic.go.
var (
	yesWords = map[string]bool{
		"yes": true, "yeah": true, "yup": true, "ok": true, "okay": true,
		"sure": true, "haan": true, "y": true,
	}

	noWords = map[string]bool{
		"no": true, "nope": true, "nah": true,
	}

	selfHarmPhrases = map[string]bool{
		"kill myself": true, "suicide": true, "want to die": true,
		"end it all": true, "hurt myself": true, "cut myself": true,
	}

	griefPhrases = map[string]bool{
		"died": true, "passed away": true, "death": true, "funeral": true,
		"lost my": true, "rip": true,
	}

	petWords = map[string]bool{
		"cat": true, "dog": true, "pet": true, "puppy": true,
		"kitten": true, "hamster": true, "parrot": true,
	}

	lonelyPhrases = map[string]bool{
		"no one talks to me": true, "nobody talks to me": true,
		"no one cares": true, "nobody cares": true,
		"i feel alone": true, "i am alone": true, "i'm alone": true,
		"lonely": true, "i feel lonely": true,
		"left out": true, "excluded": true, "not included": true,
		"no one calls me": true, "no one loves me": true,
		"nobody loves me": true, "left me": true,
		"my best friend left me": true, "best friend left me": true,
	}

	friendExcludeCues = map[string]bool{
		"included": true, "exclude": true, "ignored": true, "left out": true,
		"ghost": true, "stopped talking": true, "distant": true,
	}

	negWords = map[string]bool{
		"sad": true, "depressed": true, "anxious": true, "overwhelmed": true,
		"stressed": true, "stress": true, "empty": true, "emptiness": true,
		"numb": true, "lost": true,
	}

	copingWords = map[string]bool{
		"coping": true, "cope": true, "tips": true, "technique": true,
		"techniques": true, "help": true,
	}

	workWords = map[string]bool{
		"deadline": true, "deadlines": true, "work": true, "workload": true,
		"tasks": true, "project": true, "manager": true, "office": true,
		"assignment": true, "submit": true, "submission": true,
	}

	infoWords = map[string]bool{
		"information": true, "info": true, "explain": true, "meaning": true,
	}

	loveWords = map[string]bool{
		"in love": true, "i am in love": true, "i'm in love": true,
		"love": true, "crush": true, "liking": true, "like someone": true,
		"butterflies": true, "romantic": true, "relationship": true,
		"dating": true,
	}
)

// anyWordIn reports whether any entry of the set occurs as a substring of
// the lowercased text.
func anyWordIn(text string, set map[string]bool) bool {
	t := Lower(text)
	for w := range set {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// IsYes reports whether the input reads as an affirmative. Token membership
// rather than substring matching: "y" must not match inside other words.
func IsYes(text string) bool {
	for _, tok := range Tokenize(text) {
		if yesWords[tok] {
			return true
		}
	}
	return false
}

// IsNo reports whether the input reads as a refusal.
func IsNo(text string) bool {
	for _, tok := range Tokenize(text) {
		if noWords[tok] {
			return true
		}
	}
	return false
}

// wantsCoping reports whether the input asks for coping techniques.
func wantsCoping(s string) bool {
	return strings.Contains(s, "coping") || strings.Contains(s, "tips") || anyWordIn(s, copingWords)
}

// wantsInfo reports whether the input asks for information.
func wantsInfo(s string) bool {
	return strings.Contains(s, "info") || strings.Contains(s, "information") || anyWordIn(s, infoWords)
}
