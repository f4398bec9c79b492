package grammar

import (
	"math"
	"strconv"
	"strings"
)

// TokenKind discriminates the [Token] union.
type TokenKind int

const (
	TokenWord TokenKind = iota
	TokenNumber
	TokenKeyword
)

func (k TokenKind) String() string {
	switch k {
	case TokenNumber:
		return "number"
	case TokenKeyword:
		return "keyword"
	}
	return "word"
}

// Keyword is one of the reserved words of the grammar. The zero value is not
// a keyword.
type Keyword int

const (
	KwNone Keyword = iota
	KwFor
	KwAt
	KwSame
	KwAgain
	KwPlus
	KwAdd
	KwMinus
	KwDrop
	KwFailed
	KwFailure
	KwEasy
	KwHard
	KwRPE
	KwWarmup
	KwWarm
	KwUp
	KwPain
	KwReps
	KwRep
)

var keywords = map[string]Keyword{
	"for":     KwFor,
	"at":      KwAt,
	"same":    KwSame,
	"again":   KwAgain,
	"plus":    KwPlus,
	"add":     KwAdd,
	"minus":   KwMinus,
	"drop":    KwDrop,
	"failed":  KwFailed,
	"failure": KwFailure,
	"easy":    KwEasy,
	"hard":    KwHard,
	"rpe":     KwRPE,
	"warmup":  KwWarmup,
	"warm":    KwWarm,
	"up":      KwUp,
	"pain":    KwPain,
	"reps":    KwReps,
	"rep":     KwRep,
}

var spokenNumbers = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20,
}

// Token is a single lexical unit. Text always holds the lowercased source
// word; Num is set for numbers and Keyword for keywords.
type Token struct {
	Kind    TokenKind
	Text    string
	Num     float64
	Keyword Keyword
}

// Is reports whether t is the keyword kw.
func (t Token) Is(kw Keyword) bool {
	return t.Kind == TokenKeyword && t.Keyword == kw
}

// IsNumber reports whether t is a number.
func (t Token) IsNumber() bool { return t.Kind == TokenNumber }

// Int truncates a number token to an integer, saturating at the int32 range
// so an input like "1e20" cannot wrap into a negative count.
func (t Token) Int() int {
	switch {
	case t.Num >= math.MaxInt32:
		return math.MaxInt32
	case t.Num <= math.MinInt32:
		return math.MinInt32
	}
	return int(t.Num)
}

func (t Token) String() string {
	if t.Kind == TokenNumber {
		return strconv.FormatFloat(t.Num, 'f', -1, 64)
	}
	return t.Text
}

var stripper = strings.NewReplacer(",", "", "!", "", "?", "", "'", "", "’", "")

// Tokenize lowercases input, strips commas, exclamation and question marks
// and apostrophes, and splits on whitespace. Each word becomes a number
// (numeric literal or a spoken "zero".."twenty"), a keyword on exact match,
// or a plain word. It never fails; blank input yields an empty stream.
func Tokenize(input string) []Token {
	fields := strings.Fields(stripper.Replace(strings.ToLower(input)))
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, classify(f))
	}
	return tokens
}

func classify(word string) Token {
	if v, err := strconv.ParseFloat(word, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return Token{Kind: TokenNumber, Text: word, Num: v}
	}
	if v, ok := spokenNumbers[word]; ok {
		return Token{Kind: TokenNumber, Text: word, Num: v}
	}
	if kw, ok := keywords[word]; ok {
		return Token{Kind: TokenKeyword, Text: word, Keyword: kw}
	}
	return Token{Kind: TokenWord, Text: word}
}
