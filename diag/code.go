package diag

// CodeCategory represents the semantic domain of a diagnostic code.
//
// Categories represent the semantic domain of an error, not necessarily the
// layer that emits it.
type CodeCategory uint8

const (
	// CategorySentinel is for sentinel codes like E_LIMIT_REACHED and E_INTERNAL.
	CategorySentinel CodeCategory = iota

	// CategorySyntax is for lexer/parser errors.
	CategorySyntax

	// CategorySemantic is for semantic-model and symbol-table errors.
	CategorySemantic

	// CategoryGraph is for dependency-graph errors.
	CategoryGraph

	// CategoryPath is for path-resolver errors.
	CategoryPath

	// CategoryCanonical is for fishing/canonical-resolution errors.
	CategoryCanonical

	// CategoryExport is for profile-export errors.
	CategoryExport

	// CategoryStyle is for non-blocking style/advisory diagnostics that are
	// not tied to a specific loaded rule id.
	CategoryStyle

	// CategoryRule is for diagnostics produced by loaded lint rules. Unlike
	// the other categories, this one is open: rule ids are not known at
	// compile time, so [NewRuleCode] constructs a Code for any rule id
	// discovered at runtime, rather than picking from a fixed var block.
	CategoryRule
)

func (c CodeCategory) String() string {
	switch c {
	case CategorySentinel:
		return "sentinel"
	case CategorySyntax:
		return "syntax"
	case CategorySemantic:
		return "semantic"
	case CategoryGraph:
		return "graph"
	case CategoryPath:
		return "path"
	case CategoryCanonical:
		return "canonical"
	case CategoryExport:
		return "export"
	case CategoryStyle:
		return "style"
	case CategoryRule:
		return "rule"
	default:
		return "unknown"
	}
}

// Code is a stable programmatic identifier for an Issue.
//
// Internal codes (lexer, parser, semantic model, dependency graph, path
// resolver, canonical resolution, export) are a closed set defined below.
// Rule codes are open: every rule file loaded by the rule engine
// contributes its own id via [NewRuleCode], since rule ids are
// configuration, not compile-time constants.
type Code struct {
	value string
	cat   CodeCategory
}

// String returns the code's string representation (e.g.,
// "blocking/valid-cardinality", "E_INTERNAL").
func (c Code) String() string {
	return c.value
}

// Category returns the code's category.
func (c Code) Category() CodeCategory {
	return c.cat
}

// IsZero reports whether the code is unset.
func (c Code) IsZero() bool {
	return c.value == ""
}

func code(value string, cat CodeCategory) Code {
	return Code{value: value, cat: cat}
}

// NewRuleCode constructs a Code for a rule id loaded by the rule engine
// (e.g. "blocking/valid-cardinality", "correctness/duplicate-rule"). Unlike
// the fixed internal codes, rule ids come from rule-pack manifests and
// rule files discovered at runtime, so this constructor is exported.
func NewRuleCode(ruleID string) Code {
	return Code{value: ruleID, cat: CategoryRule}
}

// Sentinel codes.
var (
	// E_LIMIT_REACHED is a sentinel code for explicit limit notification.
	// Collector.LimitReached() reports limit status separately; callers may
	// inject this code manually when desired.
	E_LIMIT_REACHED = code("E_LIMIT_REACHED", CategorySentinel)

	// E_INTERNAL indicates an unexpected invariant failure (internal bug indicator).
	E_INTERNAL = code("E_INTERNAL", CategorySentinel)
)

// Lexer/parser codes.
var (
	// E_UNTERMINATED_STRING indicates a string literal was not closed
	// before end of file.
	E_UNTERMINATED_STRING = code("E_UNTERMINATED_STRING", CategorySyntax)

	// E_UNTERMINATED_BLOCK_COMMENT indicates a block comment was not
	// closed before end of file.
	E_UNTERMINATED_BLOCK_COMMENT = code("E_UNTERMINATED_BLOCK_COMMENT", CategorySyntax)

	// E_INVALID_CHARACTER indicates a byte the lexer could not classify.
	E_INVALID_CHARACTER = code("E_INVALID_CHARACTER", CategorySyntax)

	// E_UNEXPECTED_TOKEN indicates the parser found a token it could not
	// fit into the current grammar rule.
	E_UNEXPECTED_TOKEN = code("E_UNEXPECTED_TOKEN", CategorySyntax)

	// E_UNCLOSED_BRACKET indicates a path bracket annotation was never
	// closed.
	E_UNCLOSED_BRACKET = code("E_UNCLOSED_BRACKET", CategorySyntax)
)

// Semantic model codes.
var (
	// E_DUPLICATE_DEFINITION indicates two top-level definitions share a
	// name or id.
	E_DUPLICATE_DEFINITION = code("E_DUPLICATE_DEFINITION", CategorySemantic)

	// E_DUPLICATE_ALIAS indicates two Alias declarations share a name.
	E_DUPLICATE_ALIAS = code("E_DUPLICATE_ALIAS", CategorySemantic)

	// E_UNRESOLVED_REFERENCE indicates an identifier in a path, parent
	// clause, or value could not be resolved to any known resource.
	E_UNRESOLVED_REFERENCE = code("E_UNRESOLVED_REFERENCE", CategorySemantic)
)

// Dependency graph codes.
var (
	// E_CIRCULAR_DEPENDENCY indicates a cycle was found during topological
	// sort of the dependency graph.
	E_CIRCULAR_DEPENDENCY = code("E_CIRCULAR_DEPENDENCY", CategoryGraph)
)

// Path resolver codes.
var (
	// E_PATH_NOT_FOUND indicates a path segment matched no element.
	E_PATH_NOT_FOUND = code("E_PATH_NOT_FOUND", CategoryPath)

	// E_PATH_AMBIGUOUS indicates a path segment matched more than one
	// element with no disambiguating bracket.
	E_PATH_AMBIGUOUS = code("E_PATH_AMBIGUOUS", CategoryPath)

	// E_PATH_INVALID_SYNTAX indicates malformed path syntax (e.g. an
	// unclosed bracket).
	E_PATH_INVALID_SYNTAX = code("E_PATH_INVALID_SYNTAX", CategoryPath)

	// E_PATH_UNFOLD_FAILED indicates unfolding a complex-typed element's
	// children failed.
	E_PATH_UNFOLD_FAILED = code("E_PATH_UNFOLD_FAILED", CategoryPath)

	// E_PATH_CANONICAL_ERROR indicates fishing for a type referenced
	// during path resolution failed.
	E_PATH_CANONICAL_ERROR = code("E_PATH_CANONICAL_ERROR", CategoryPath)

	// E_PATH_INVALID_ELEMENT indicates a resolved ElementDefinition was
	// malformed.
	E_PATH_INVALID_ELEMENT = code("E_PATH_INVALID_ELEMENT", CategoryPath)
)

// Canonical resolution codes.
var (
	// E_CANONICAL_NOT_FOUND indicates fish() found no resource for an
	// identifier in any of the three tiers.
	E_CANONICAL_NOT_FOUND = code("E_CANONICAL_NOT_FOUND", CategoryCanonical)

	// E_CANONICAL_SOURCE_ERROR indicates the external package source
	// returned an error rather than a not-found result.
	E_CANONICAL_SOURCE_ERROR = code("E_CANONICAL_SOURCE_ERROR", CategoryCanonical)
)

// Export codes.
var (
	// E_EXPORT_PARENT_NOT_FOUND indicates the profile's parent could not
	// be fished.
	E_EXPORT_PARENT_NOT_FOUND = code("E_EXPORT_PARENT_NOT_FOUND", CategoryExport)

	// E_EXPORT_RULE_FAILED indicates a rule could not be applied while
	// generating the differential.
	E_EXPORT_RULE_FAILED = code("E_EXPORT_RULE_FAILED", CategoryExport)

	// E_EXPORT_VALIDATION_FAILED indicates the generated
	// StructureDefinition failed post-export validation.
	E_EXPORT_VALIDATION_FAILED = code("E_EXPORT_VALIDATION_FAILED", CategoryExport)
)

// Style codes.
var (
	// E_STYLE_ADVISORY is a generic non-blocking style advisory not tied to
	// a specific loaded rule id (e.g. internal formatter warnings).
	E_STYLE_ADVISORY = code("E_STYLE_ADVISORY", CategoryStyle)
)

// allCodes contains every fixed (non-rule) code, for AllCodes() and
// uniqueness verification.
var allCodes = []Code{
	E_LIMIT_REACHED, E_INTERNAL,
	E_STYLE_ADVISORY,
	E_UNTERMINATED_STRING, E_UNTERMINATED_BLOCK_COMMENT, E_INVALID_CHARACTER,
	E_UNEXPECTED_TOKEN, E_UNCLOSED_BRACKET,
	E_DUPLICATE_DEFINITION, E_DUPLICATE_ALIAS, E_UNRESOLVED_REFERENCE,
	E_CIRCULAR_DEPENDENCY,
	E_PATH_NOT_FOUND, E_PATH_AMBIGUOUS, E_PATH_INVALID_SYNTAX,
	E_PATH_UNFOLD_FAILED, E_PATH_CANONICAL_ERROR, E_PATH_INVALID_ELEMENT,
	E_CANONICAL_NOT_FOUND, E_CANONICAL_SOURCE_ERROR,
	E_EXPORT_PARENT_NOT_FOUND, E_EXPORT_RULE_FAILED, E_EXPORT_VALIDATION_FAILED,
}

// AllCodes returns every fixed (non-rule) code. Rule codes are excluded
// since they are only known once rule discovery has run; query the loaded
// rule pack for those instead.
func AllCodes() []Code {
	result := make([]Code, len(allCodes))
	copy(result, allCodes)
	return result
}

// CodesByCategory returns fixed codes in the given category.
func CodesByCategory(cat CodeCategory) []Code {
	var result []Code
	for _, c := range allCodes {
		if c.cat == cat {
			result = append(result, c)
		}
	}
	return result
}
