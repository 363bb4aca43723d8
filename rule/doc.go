// Package rule implements maki's lint rule engine: a small set of built-in
// rules that run directly over a [semantic.Model] (duplicate definitions,
// conflicting rules on the same element path, duplicate aliases, and
// cardinality validation), plus a lighter-weight pattern rule form for
// matching on rule shape without writing Go.
//
// A [RulePack] groups compiled rules together and runs them all over a
// model, merging the resulting diagnostics. Built-in rules are always
// discoverable by ID; pattern rules are loaded from configuration.
package rule
