package rule

import (
	"github.com/fshlint/maki/canonical"
	"github.com/fshlint/maki/diag"
	"github.com/fshlint/maki/semantic"
)

// CompiledRule is one loaded lint rule: something that can inspect a
// [semantic.Model] and report violations as diagnostics.
//
// Built-in rules implement this by walking the model's resources directly.
// Pattern rules implement it by matching each rule's shape against a
// configured predicate.
//
// Check must stand on its own: it runs sync, per file, before any
// cross-file resolution is available (a single file's pipeline stage has
// no fishing tank yet). A rule whose primary behavior needs to resolve
// another definition implements Check as a fallback heuristic and adds
// [SessionAwareRule] for the resolved case; see that interface's doc.
type CompiledRule interface {
	// ID is the rule's stable identifier (e.g.
	// "blocking/valid-cardinality"), used both as the diagnostic code and
	// as the key configuration refers to the rule by.
	ID() string

	// DefaultSeverity is the severity this rule reports at. Rule-level
	// severity overrides are a configuration concern, applied by whatever
	// loads the rule pack rather than by CompiledRule itself.
	DefaultSeverity() diag.Severity

	// Check runs the rule against model and returns every violation found,
	// in a deterministic order.
	Check(model *semantic.Model) []diag.Issue
}

// SessionAwareRule is an optional capability a [CompiledRule] can
// additionally implement: a rule whose real check needs a resolved
// [canonical.FishingContext] to compare a definition against another one
// it refers to (a profile's cardinality against its parent's, for
// instance). Only a handful of rules need this — most rules are
// self-contained within one file's model and only ever implement Check.
//
// CheckWithSession runs once a fishing tank covering every file in the run
// has been assembled, which is necessarily after every file's own sync
// Check has already run; a [RulePack] runs the two in separate passes
// rather than mixing them into one (see RulePack.RunWithSession). A rule
// implementing this interface should still fall back to its own Check
// heuristic internally when the session does not resolve what it needs —
// CheckWithSession replaces Check's result for that rule in the combined
// pass, it does not supplement it.
type SessionAwareRule interface {
	CompiledRule

	// CheckWithSession runs the rule against model using session to
	// resolve cross-file or external definitions, and returns every
	// violation found, in a deterministic order.
	CheckWithSession(model *semantic.Model, session *canonical.FishingContext) []diag.Issue
}
