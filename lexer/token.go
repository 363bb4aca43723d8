// Package lexer turns FSH source bytes into a flat token stream.
//
// Every byte of the input is consumed by exactly one token, including
// whitespace, newlines, and comments (trivia). This is the foundation of the
// CST's losslessness guarantee: concatenating every token's Text in order
// always reproduces the original source.
package lexer

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	// Eof is emitted once, at the end of the stream, with an empty Text.
	Eof Kind = iota
	Error

	// Trivia.
	Whitespace
	Newline
	CommentLine
	CommentBlock

	// Literals.
	Ident
	String
	Integer
	Decimal
	True
	False

	// Punctuation.
	Colon      // :
	Equals     // =
	PlusEquals // +=
	Caret      // ^
	Star       // *
	Hash       // #
	Dot        // .
	DotDot     // ..
	LBracket   // [
	RBracket   // ]
	LParen     // (
	RParen     // )
	Comma      // ,
	LBrace     // {
	RBrace     // }
	Plus       // + (increment bracket content, lexed as punctuation inside brackets)

	// Keywords.
	KwProfile
	KwExtension
	KwValueSet
	KwCodeSystem
	KwInstance
	KwInvariant
	KwMapping
	KwLogical
	KwResource
	KwAlias
	KwRuleSet
	KwParent
	KwId
	KwTitle
	KwDescription
	KwInstanceOf
	KwUsage
	KwSource
	KwTarget
	KwSeverity
	KwXPath
	KwExpression
	KwContext
	KwContains
	KwFrom
	KwOnly
	KwObeys
	KwInsert
	KwAnd
	KwMS
	KwSU
)

// keywords maps the fixed keyword set to its Kind. Matched only after an
// identifier has been scanned in full, per the lexer contract.
var keywords = map[string]Kind{
	"Profile":     KwProfile,
	"Extension":   KwExtension,
	"ValueSet":    KwValueSet,
	"CodeSystem":  KwCodeSystem,
	"Instance":    KwInstance,
	"Invariant":   KwInvariant,
	"Mapping":     KwMapping,
	"Logical":     KwLogical,
	"Resource":    KwResource,
	"Alias":       KwAlias,
	"RuleSet":     KwRuleSet,
	"Parent":      KwParent,
	"Id":          KwId,
	"Title":       KwTitle,
	"Description": KwDescription,
	"InstanceOf":  KwInstanceOf,
	"Usage":       KwUsage,
	"Source":      KwSource,
	"Target":      KwTarget,
	"Severity":    KwSeverity,
	"XPath":       KwXPath,
	"Expression":  KwExpression,
	"Context":     KwContext,
	"contains":    KwContains,
	"from":        KwFrom,
	"only":        KwOnly,
	"obeys":       KwObeys,
	"insert":      KwInsert,
	"and":         KwAnd,
	"MS":          KwMS,
	"SU":          KwSU,
	"true":        True,
	"false":       False,
}

// String renders a Kind's debug name, e.g. for error messages and tests.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsTrivia reports whether tokens of this kind are whitespace, newlines, or
// comments: content that carries no grammatical meaning but must still
// round-trip for losslessness.
func (k Kind) IsTrivia() bool {
	switch k {
	case Whitespace, Newline, CommentLine, CommentBlock:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether this Kind is one of the fixed FSH keywords.
func (k Kind) IsKeyword() bool {
	return k >= KwProfile && k <= KwSU
}

// Token is an immutable lexical unit: a byte range of the source paired
// with its classification and exact text.
//
// Token is a value type (cheap to copy); Text holds a string copy of the
// token's source bytes.
type Token struct {
	Kind  Kind
	Text  string
	Start int // byte offset, inclusive
	End   int // byte offset, exclusive
}

// Len returns the byte length of the token.
func (t Token) Len() int { return t.End - t.Start }

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@[%d,%d)", t.Kind, t.Text, t.Start, t.End)
}

// ErrorKind classifies a lex-time error.
type ErrorKind int

const (
	UnterminatedString ErrorKind = iota
	UnterminatedBlockComment
	InvalidCharacter
)

func (e ErrorKind) String() string {
	switch e {
	case UnterminatedString:
		return "UnterminatedString"
	case UnterminatedBlockComment:
		return "UnterminatedBlockComment"
	case InvalidCharacter:
		return "InvalidCharacter"
	default:
		return "UnknownLexError"
	}
}

// LexError describes a single lex-time failure. The lexer always recovers
// and continues, emitting an Error token at the offending span so
// losslessness holds even for malformed input.
type LexError struct {
	Kind       ErrorKind
	Start, End int
	Message    string
}

func (e LexError) Error() string {
	return fmt.Sprintf("%s at [%d,%d): %s", e.Kind, e.Start, e.End, e.Message)
}

var kindNames = map[Kind]string{
	Eof: "Eof", Error: "Error",
	Whitespace: "Whitespace", Newline: "Newline",
	CommentLine: "CommentLine", CommentBlock: "CommentBlock",
	Ident: "Ident", String: "String", Integer: "Integer", Decimal: "Decimal",
	True: "True", False: "False",
	Colon: "Colon", Equals: "Equals", PlusEquals: "PlusEquals", Caret: "Caret",
	Star: "Star", Hash: "Hash", Dot: "Dot", DotDot: "DotDot",
	LBracket: "LBracket", RBracket: "RBracket", LParen: "LParen", RParen: "RParen",
	Comma: "Comma", LBrace: "LBrace", RBrace: "RBrace", Plus: "Plus",
	KwProfile: "KwProfile", KwExtension: "KwExtension", KwValueSet: "KwValueSet",
	KwCodeSystem: "KwCodeSystem", KwInstance: "KwInstance", KwInvariant: "KwInvariant",
	KwMapping: "KwMapping", KwLogical: "KwLogical", KwResource: "KwResource",
	KwAlias: "KwAlias", KwRuleSet: "KwRuleSet", KwParent: "KwParent", KwId: "KwId",
	KwTitle: "KwTitle", KwDescription: "KwDescription", KwInstanceOf: "KwInstanceOf",
	KwUsage: "KwUsage", KwSource: "KwSource", KwTarget: "KwTarget",
	KwSeverity: "KwSeverity", KwXPath: "KwXPath", KwExpression: "KwExpression",
	KwContext: "KwContext", KwContains: "KwContains", KwFrom: "KwFrom",
	KwOnly: "KwOnly", KwObeys: "KwObeys", KwInsert: "KwInsert", KwAnd: "KwAnd",
	KwMS: "KwMS", KwSU: "KwSU",
}
