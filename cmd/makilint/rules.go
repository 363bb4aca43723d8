package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fshlint/maki/rule"
)

// ruleMeta is hand-maintained documentation for a builtin rule, since
// rule.CompiledRule exposes only an ID and a default severity: enough for
// the linter to run it, not enough to describe it to a human.
type ruleMeta struct {
	id          string
	description string
	category    string
	tags        []string
}

var ruleMetadata = []ruleMeta{
	{
		id:          rule.DuplicateDefinitionID,
		description: "Flags a Profile, Extension, Instance, ValueSet, CodeSystem, or Invariant name declared more than once across a project.",
		category:    "blocking",
		tags:        []string{"duplicate", "definition"},
	},
	{
		id:          rule.DuplicateRuleID,
		description: "Flags the same element path assigned a rule more than once within a single item definition.",
		category:    "correctness",
		tags:        []string{"duplicate", "rule"},
	},
	{
		id:          rule.DuplicateAliasID,
		description: "Flags an Alias name declared more than once, or redeclared with a different target.",
		category:    "correctness",
		tags:        []string{"duplicate", "alias"},
	},
	{
		id:          rule.ValidCardinalityID,
		description: "Flags a cardinality rule whose lower bound exceeds its upper bound, or whose upper bound is not a positive integer or \"*\".",
		category:    "blocking",
		tags:        []string{"cardinality"},
	},
	{
		id:          rule.CardinalityConflictsID,
		description: "Flags a cardinality rule that is not a valid refinement of its parent element's cardinality; falls back to flagging an unbounded max paired with min > 1 when the parent can't be resolved.",
		category:    "correctness",
		tags:        []string{"cardinality"},
	},
	{
		id:          rule.UnusedAliasID,
		description: "Flags an Alias declaration that no rule value, binding, or invariant in the document ever references.",
		category:    "correctness",
		tags:        []string{"alias", "unused"},
	},
	{
		id:          rule.RedundantFlagID,
		description: "Flags a rule line that spells the same MS or SU flag more than once.",
		category:    "style",
		tags:        []string{"flag", "style"},
	},
}

func lookupRuleMeta(id string) (ruleMeta, bool) {
	for _, m := range ruleMetadata {
		if m.id == id {
			return m, true
		}
	}
	return ruleMeta{}, false
}

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the builtin rule set",
	}

	cmd.AddCommand(newRulesListCommand())
	cmd.AddCommand(newRulesExplainCommand())
	cmd.AddCommand(newRulesSearchCommand())

	return cmd
}

func newRulesListCommand() *cobra.Command {
	var detailed bool
	var category string
	var tag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List builtin rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			pack := rule.BuiltinRulePack()
			rules := sortedRules(pack)
			for _, r := range rules {
				m, ok := lookupRuleMeta(r.ID())
				if ok && category != "" && m.category != category {
					continue
				}
				if ok && tag != "" && !hasTag(m.tags, tag) {
					continue
				}
				printRuleLine(r, m, detailed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "include each rule's description")
	cmd.Flags().StringVar(&category, "category", "", "only list rules in this category")
	cmd.Flags().StringVar(&tag, "tag", "", "only list rules carrying this tag")

	return cmd
}

func newRulesExplainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <rule-id>",
		Short: "Show everything known about one rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pack := rule.BuiltinRulePack()
			r, ok := pack.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown rule %q", args[0])
			}
			m, _ := lookupRuleMeta(r.ID())

			fmt.Printf("%s\n", r.ID())
			fmt.Printf("  default severity: %s\n", r.DefaultSeverity())
			if m.category != "" {
				fmt.Printf("  category: %s\n", m.category)
			}
			if len(m.tags) > 0 {
				fmt.Printf("  tags: %s\n", strings.Join(m.tags, ", "))
			}
			if m.description != "" {
				fmt.Printf("\n%s\n", m.description)
			}
			return nil
		},
	}
}

func newRulesSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search rule ids, descriptions, and tags for a substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.ToLower(args[0])
			pack := rule.BuiltinRulePack()
			for _, r := range sortedRules(pack) {
				m, ok := lookupRuleMeta(r.ID())
				if !ok {
					continue
				}
				if strings.Contains(strings.ToLower(m.id), query) ||
					strings.Contains(strings.ToLower(m.description), query) ||
					hasTagSubstring(m.tags, query) {
					printRuleLine(r, m, true)
				}
			}
			return nil
		},
	}
}

func sortedRules(pack *rule.RulePack) []rule.CompiledRule {
	rules := pack.Rules()
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID() < rules[j].ID() })
	return rules
}

func printRuleLine(r rule.CompiledRule, m ruleMeta, detailed bool) {
	fmt.Printf("%-40s %s\n", r.ID(), r.DefaultSeverity())
	if detailed && m.description != "" {
		fmt.Printf("    %s\n", m.description)
	}
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func hasTagSubstring(tags []string, query string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), query) {
			return true
		}
	}
	return false
}
