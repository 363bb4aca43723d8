package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fshlint/maki/internal/ident"
	"github.com/fshlint/maki/pathresolve"
	"github.com/fshlint/maki/semantic"
)

// uninheritedExtensions are the structuredefinition-* extensions SUSHI
// strips from a profile's seed rather than propagating from its parent.
var uninheritedExtensions = map[string]bool{
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-fmm":                      true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-fmm-no-warnings":          true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-hierarchy":                true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-interface":                true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-normative-version":        true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-applicable-version":       true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-category":                 true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-codegen-super":            true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-security-category":        true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-standards-status":         true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-summary":                  true,
	"http://hl7.org/fhir/StructureDefinition/structuredefinition-wg":                       true,
	"http://hl7.org/fhir/StructureDefinition/replaces":                                     true,
	"http://hl7.org/fhir/StructureDefinition/resource-approvalDate":                        true,
	"http://hl7.org/fhir/StructureDefinition/resource-effectivePeriod":                     true,
	"http://hl7.org/fhir/StructureDefinition/resource-lastReviewDate":                      true,
}

// Fisher resolves a bare name or canonical URL to raw StructureDefinition
// JSON. canonical.FishingContext satisfies this.
type Fisher interface {
	FishStructureDefinition(identifier string) (json.RawMessage, bool)
}

// ProfileExporter transforms FSH Profile definitions into FHIR
// StructureDefinition resources.
type ProfileExporter struct {
	fisher            Fisher
	resolver          *pathresolve.Resolver
	baseURL           string
	generateSnapshots bool
	status            string
}

// NewProfileExporter builds an exporter that fishes parent definitions
// through fisher, resolves element paths against them through resolver,
// and mints canonical URLs under baseURL. Snapshot generation defaults off
// to match SUSHI's default output.
func NewProfileExporter(fisher Fisher, resolver *pathresolve.Resolver, baseURL string) *ProfileExporter {
	return &ProfileExporter{
		fisher:   fisher,
		resolver: resolver,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		status:   "draft",
	}
}

// SetGenerateSnapshots controls whether Export retains the fully expanded
// element snapshot alongside the differential.
func (x *ProfileExporter) SetGenerateSnapshots(generate bool) {
	x.generateSnapshots = generate
}

// SetStatus overrides the default "draft" status applied to exported
// profiles.
func (x *ProfileExporter) SetStatus(status string) {
	if status != "" {
		x.status = status
	}
}

// Result is a profile export's output: the StructureDefinition plus any
// per-rule warnings accumulated along the way. A non-nil Warnings entry
// means that rule was skipped, not that the export failed.
type Result struct {
	StructureDefinition StructureDefinition
	Warnings            []string
}

// Export transforms a Profile's semantic.FhirResource into a
// StructureDefinition with a populated differential. Rule application
// errors are recorded in Result.Warnings and do not abort the export; an
// error is returned only when res is not a Profile or lacks a name or
// parent, when the parent cannot be resolved or cloned, or when final
// validation fails.
func (x *ProfileExporter) Export(res *semantic.FhirResource) (*Result, error) {
	if res.Kind != semantic.KindProfile {
		return nil, newError(ErrMissingRequiredField, "export: %s is not a profile", res.Kind)
	}
	if res.Name == "" {
		return nil, newError(ErrMissingRequiredField, "profile name")
	}
	if res.Parent == "" {
		return nil, newError(ErrMissingRequiredField, "parent")
	}

	base, err := x.getBaseStructureDefinition(res.Parent)
	if err != nil {
		return nil, err
	}

	sd, err := base.Clone()
	if err != nil {
		return nil, newError(ErrUnspecified, "cloning parent definition: %v", err)
	}
	sd.BaseDefinition = base.URL
	parentID := base.URL

	x.applyMetadata(&sd, res)

	var warnings []string
	for _, r := range res.Rules {
		if err := x.applyRule(&sd, parentID, r); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s at %q: %v", r.Kind, r.Path, err))
		}
	}

	sd.Differential = x.generateDifferential(res, sd.Type)

	if !x.generateSnapshots {
		sd.Snapshot = nil
	}

	if err := x.validate(&sd); err != nil {
		return nil, err
	}

	return &Result{StructureDefinition: sd, Warnings: warnings}, nil
}

func (x *ProfileExporter) getBaseStructureDefinition(parent string) (StructureDefinition, error) {
	canonicalURL := parent
	if !strings.HasPrefix(parent, "http://") && !strings.HasPrefix(parent, "https://") {
		canonicalURL = "http://hl7.org/fhir/StructureDefinition/" + parent
	}

	raw, ok := x.fisher.FishStructureDefinition(canonicalURL)
	if !ok {
		raw, ok = x.fisher.FishStructureDefinition(parent)
	}
	if !ok {
		return StructureDefinition{}, newError(ErrParentNotFound, "parent not found: %s", parent)
	}

	var sd StructureDefinition
	if err := json.Unmarshal(raw, &sd); err != nil {
		return StructureDefinition{}, newError(ErrUnspecified, "parsing parent %s: %v", parent, err)
	}
	return sd, nil
}

// applyMetadata implements SUSHI's metadata-clearing strategy: clear
// inherited fields that must not be propagated, strip uninheritable
// extensions, then set the new profile's own metadata.
func (x *ProfileExporter) applyMetadata(sd *StructureDefinition, res *semantic.FhirResource) {
	sd.Experimental = nil
	sd.Date = ""
	sd.Publisher = ""
	sd.Version = ""

	if len(sd.Extension) > 0 {
		kept := sd.Extension[:0]
		for _, ext := range sd.Extension {
			if !uninheritedExtensions[ext.URL] {
				kept = append(kept, ext)
			}
		}
		sd.Extension = kept
	}

	sd.Name = res.Name
	urlID := res.Id
	if urlID == "" {
		urlID = defaultID(res.Name)
	}
	sd.ID = urlID
	sd.URL = fmt.Sprintf("%s/StructureDefinition/%s", x.baseURL, urlID)
	sd.Derivation = "constraint"
	sd.Title = res.Title
	sd.Description = res.Description
	sd.Status = x.status
}

func (x *ProfileExporter) applyRule(sd *StructureDefinition, parentID string, r semantic.Rule) error {
	switch r.Kind {
	case semantic.RuleCard:
		return x.applyCardinalityRule(sd, parentID, r)
	case semantic.RuleFlag:
		return x.applyFlagRule(sd, parentID, r)
	case semantic.RuleValueset:
		return x.applyBindingRule(sd, parentID, r)
	case semantic.RuleFixedValue:
		return x.applyFixedValueRule(sd, parentID, r)
	case semantic.RuleContains:
		return x.applyContainsRule(sd, parentID, r)
	case semantic.RuleOnly:
		return x.applyOnlyRule(sd, parentID, r)
	case semantic.RuleObeys:
		return x.applyObeysRule(sd, parentID, r)
	case semantic.RuleCaretValue, semantic.RuleInsert:
		// Metadata/ruleset-expansion rules are resolved before export, not
		// against the snapshot.
		return nil
	default:
		return nil
	}
}

func (x *ProfileExporter) applyCardinalityRule(sd *StructureDefinition, parentID string, r semantic.Rule) error {
	if r.Cardinality == nil {
		return newError(ErrInvalidCardinality, "missing cardinality")
	}
	full := x.resolveFullPath(parentID, sd.Type, r.Path)
	elem := sd.EnsureElement(full)

	min := r.Cardinality.Min
	elem.Min = &min
	elem.Max = r.Cardinality.MaxString()

	if r.MustSupport {
		t := true
		elem.MustSupport = &t
	}
	if r.IsSummary {
		t := true
		elem.IsSummary = &t
	}
	return nil
}

func (x *ProfileExporter) applyFlagRule(sd *StructureDefinition, parentID string, r semantic.Rule) error {
	full := x.resolveFullPath(parentID, sd.Type, r.Path)
	elem := sd.EnsureElement(full)
	if r.MustSupport {
		t := true
		elem.MustSupport = &t
	}
	if r.IsSummary {
		t := true
		elem.IsSummary = &t
	}
	return nil
}

func (x *ProfileExporter) applyBindingRule(sd *StructureDefinition, parentID string, r semantic.Rule) error {
	if r.ValuesetTarget == "" {
		return newError(ErrMissingRequiredField, "value set")
	}
	strength, ok := parseBindingStrength(r.BindingStrength)
	if !ok {
		return newError(ErrInvalidBindingStrength, "%s", r.BindingStrength)
	}

	full := x.resolveFullPath(parentID, sd.Type, r.Path)
	elem := sd.EnsureElement(full)

	valueSetURL := r.ValuesetTarget
	if !strings.HasPrefix(valueSetURL, "http://") && !strings.HasPrefix(valueSetURL, "https://") {
		valueSetURL = fmt.Sprintf("%s/ValueSet/%s", x.baseURL, valueSetURL)
	}
	elem.Binding = &ElementBinding{Strength: strength, ValueSet: valueSetURL}
	return nil
}

func (x *ProfileExporter) applyFixedValueRule(sd *StructureDefinition, parentID string, r semantic.Rule) error {
	if r.Value == "" {
		return newError(ErrMissingRequiredField, "value")
	}
	full := x.resolveFullPath(parentID, sd.Type, r.Path)
	elem := sd.EnsureElement(full)

	key, value, err := patternField(r.Value, r.ValueIsString)
	if err != nil {
		return err
	}
	elem.Pattern = map[string]any{key: value}
	return nil
}

// patternField infers a pattern[x] field name and decoded value from an
// FSH fixed-value rule's right-hand-side value. isString records whether
// the rule's source text was a quoted string literal — by the time Value
// reaches here its quotes are already stripped, so a quoted "Jane Doe" and
// a bare code Jane-Doe would otherwise be indistinguishable.
func patternField(raw string, isString bool) (string, any, error) {
	switch {
	case isString:
		return "patternString", raw, nil
	case strings.HasPrefix(raw, "#"):
		return "patternCode", strings.TrimPrefix(raw, "#"), nil
	default:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return "patternInteger", i, nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return "patternDecimal", f, nil
		}
		return "patternCode", raw, nil
	}
}

var bracketSlice = regexp.MustCompile(`([^\[]+)\[([^\]]+)\](.*)`)

// resolveFullPath normalizes an FSH rule path ("identifier[system]" style
// bracket slicing) into a dotted, colon-sliced FHIR element path, prepended
// with the resource type. It prefers the path resolver's unfolded result
// when the parent definition actually declares the path (so nested complex
// types resolve correctly); it falls back to syntactic normalization for
// paths the rule itself introduces, such as a slice just created by a
// preceding ContainsRule.
func (x *ProfileExporter) resolveFullPath(parentID, resourceType, path string) string {
	if x.resolver != nil {
		if elem, err := x.resolver.ResolvePath(parentID, path); err == nil {
			return elem.Path()
		}
	}
	return normalizeSyntacticPath(resourceType, path)
}

// defaultID derives a FHIR-valid id ([A-Za-z0-9\-\.]{1,64}) from a
// definition's name when its authors gave no explicit Id: metadata,
// following the FHIR convention of a kebab-case id alongside a PascalCase
// name (e.g. name "USCorePatientProfile" becomes id "us-core-patient-
// profile"). ident.ToLowerSnake's tokenizer already does the rune-aware
// word-boundary splitting this needs; its underscore joiner is swapped for
// a dash, the only difference between lower_snake_case and kebab-case.
func defaultID(name string) string {
	id := strings.ReplaceAll(ident.ToLowerSnake(name), "_", "-")
	if len(id) > 64 {
		id = id[:64]
	}
	return id
}

func normalizeSyntacticPath(resourceType, path string) string {
	if strings.Contains(path, ".") {
		if parts := strings.SplitN(path, ".", 2); parts[0] == resourceType {
			return path
		}
	}

	normalized := path
	if strings.Contains(path, "[") && strings.Contains(path, "]") {
		if caps := bracketSlice.FindStringSubmatch(path); caps != nil {
			normalized = fmt.Sprintf("%s:%s%s", caps[1], caps[2], caps[3])
		}
	}
	return resourceType + "." + normalized
}

func (x *ProfileExporter) applyContainsRule(sd *StructureDefinition, parentID string, r semantic.Rule) error {
	full := x.resolveFullPath(parentID, sd.Type, r.Path)
	sd.EnsureElement(full)

	isExtension := r.Path == "extension" || r.Path == "modifierExtension" ||
		strings.HasSuffix(r.Path, ".extension") || strings.HasSuffix(r.Path, ".modifierExtension")

	for _, item := range r.ContainsItems {
		slicePath := fmt.Sprintf("%s:%s", full, item.Name)
		if sd.FindElement(slicePath) != nil {
			continue
		}
		elem := ElementDefinition{
			Path:      slicePath,
			SliceName: item.Name,
			Short:     fmt.Sprintf("Slice: %s", item.Name),
		}
		if item.Cardinality != nil {
			min := item.Cardinality.Min
			elem.Min = &min
			elem.Max = item.Cardinality.MaxString()
		}
		if item.MustSupport {
			t := true
			elem.MustSupport = &t
		}
		if item.IsSummary {
			t := true
			elem.IsSummary = &t
		}
		if isExtension {
			extensionURL := fmt.Sprintf("%s/StructureDefinition/%s", x.baseURL, item.Name)
			elem.Type = []ElementType{{Code: "Extension", Profile: []string{extensionURL}}}
		}
		sd.Snapshot.Element = append(sd.Snapshot.Element, elem)
	}
	return nil
}

func (x *ProfileExporter) applyOnlyRule(sd *StructureDefinition, parentID string, r semantic.Rule) error {
	if len(r.OnlyTypes) == 0 {
		return newError(ErrInvalidType, "no types named")
	}
	full := x.resolveFullPath(parentID, sd.Type, r.Path)
	elem := sd.EnsureElement(full)
	types := make([]ElementType, len(r.OnlyTypes))
	for i, t := range r.OnlyTypes {
		types[i] = ElementType{Code: t}
	}
	elem.Type = types
	return nil
}

func (x *ProfileExporter) applyObeysRule(sd *StructureDefinition, parentID string, r semantic.Rule) error {
	full := x.resolveFullPath(parentID, sd.Type, r.Path)
	elem := sd.EnsureElement(full)
	for _, inv := range r.Invariants {
		exists := false
		for _, c := range elem.Constraint {
			if c.Key == inv {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		elem.Constraint = append(elem.Constraint, ElementConstraint{
			Key:      inv,
			Severity: "error",
			Human:    fmt.Sprintf("Constraint: %s", inv),
		})
	}
	return nil
}

// generateDifferential authors one differential element per FSH rule
// (SUSHI-style) rather than diffing against the base snapshot, so an
// element touched by both a cardinality rule and a flag rule appears once
// with both facets set.
func (x *ProfileExporter) generateDifferential(res *semantic.FhirResource, resourceType string) *Differential {
	var order []string
	byPath := map[string]*ElementDefinition{}

	elementFor := func(path string) *ElementDefinition {
		full := normalizeSyntacticPath(resourceType, path)
		if e, ok := byPath[full]; ok {
			return e
		}
		e := &ElementDefinition{Path: full}
		byPath[full] = e
		order = append(order, full)
		return e
	}

	for _, r := range res.Rules {
		switch r.Kind {
		case semantic.RuleCard:
			if r.Cardinality == nil {
				continue
			}
			e := elementFor(r.Path)
			min := r.Cardinality.Min
			e.Min = &min
			e.Max = r.Cardinality.MaxString()
			if r.MustSupport {
				t := true
				e.MustSupport = &t
			}
			if r.IsSummary {
				t := true
				e.IsSummary = &t
			}
		case semantic.RuleFlag:
			e := elementFor(r.Path)
			if r.MustSupport {
				t := true
				e.MustSupport = &t
			}
			if r.IsSummary {
				t := true
				e.IsSummary = &t
			}
		case semantic.RuleValueset:
			if strength, ok := parseBindingStrength(r.BindingStrength); ok && r.ValuesetTarget != "" {
				e := elementFor(r.Path)
				valueSetURL := r.ValuesetTarget
				if !strings.HasPrefix(valueSetURL, "http://") && !strings.HasPrefix(valueSetURL, "https://") {
					valueSetURL = fmt.Sprintf("%s/ValueSet/%s", x.baseURL, valueSetURL)
				}
				e.Binding = &ElementBinding{Strength: strength, ValueSet: valueSetURL}
			}
		case semantic.RuleFixedValue:
			if key, value, err := patternField(r.Value, r.ValueIsString); err == nil {
				e := elementFor(r.Path)
				e.Pattern = map[string]any{key: value}
			}
		case semantic.RuleContains:
			for _, item := range r.ContainsItems {
				full := normalizeSyntacticPath(resourceType, r.Path)
				slicePath := fmt.Sprintf("%s:%s", full, item.Name)
				e := &ElementDefinition{Path: slicePath, SliceName: item.Name, Short: fmt.Sprintf("Slice: %s", item.Name)}
				if item.Cardinality != nil {
					min := item.Cardinality.Min
					e.Min = &min
					e.Max = item.Cardinality.MaxString()
				}
				byPath[slicePath] = e
				order = append(order, slicePath)
			}
		case semantic.RuleOnly:
			if len(r.OnlyTypes) > 0 {
				e := elementFor(r.Path)
				types := make([]ElementType, len(r.OnlyTypes))
				for i, t := range r.OnlyTypes {
					types[i] = ElementType{Code: t}
				}
				e.Type = types
			}
		case semantic.RuleObeys:
			e := elementFor(r.Path)
			for _, inv := range r.Invariants {
				e.Constraint = append(e.Constraint, ElementConstraint{Key: inv, Severity: "error", Human: fmt.Sprintf("Constraint: %s", inv)})
			}
		}
	}

	elements := make([]ElementDefinition, 0, len(order))
	for _, path := range order {
		elements = append(elements, *byPath[path])
	}
	return &Differential{Element: elements}
}

func (x *ProfileExporter) validate(sd *StructureDefinition) error {
	if sd.URL == "" {
		return newError(ErrMissingRequiredField, "url")
	}
	if sd.Name == "" {
		return newError(ErrMissingRequiredField, "name")
	}
	if sd.Type == "" {
		return newError(ErrMissingRequiredField, "type")
	}
	if sd.Differential != nil {
		for _, elem := range sd.Differential.Element {
			if err := validateElement(elem); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateElement(elem ElementDefinition) error {
	if elem.Path == "" {
		return newError(ErrMissingRequiredField, "element.path")
	}
	if elem.Min != nil && elem.Max != "" && elem.Max != "*" {
		max, err := strconv.Atoi(elem.Max)
		if err == nil && *elem.Min > max {
			return newError(ErrInvalidCardinality, "%d..%s", *elem.Min, elem.Max)
		}
	}
	if elem.Binding != nil && elem.Binding.ValueSet == "" {
		return newError(ErrInvalidBindingStrength, "binding must have a value set")
	}
	return nil
}
