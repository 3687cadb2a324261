// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rules

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var ruleNumPattern = regexp.MustCompile(`^R\d{3}$`)

// ruleFields is the normalized view of a row that the struct validator checks
type ruleFields struct {
	Num       string `col:"RULES_NUM" validate:"required,rulenum"`
	BatchCode string `col:"BATCH_CODE" validate:"required"`
	Mode      string `col:"MODE" validate:"required,oneof=new update"`
	Key       string `col:"KEY" validate:"required,nospace"`
	Value     string `col:"VALUE" validate:"required,nospace"`
	Active    string `col:"RULE_ACTIVE" validate:"required,eq=TRUE"`
}

// ❌ Invalid is a rejected row with the reasons it was rejected
type Invalid struct {
	Row     Row
	Reasons []string
}

// 🔁 Duplicate is a (batch code, key) pair claimed by several rules
type Duplicate struct {
	BatchCode string
	Key       string
	Rules     []Rule
}

// 📊 Result is the outcome of validating the rule table
type Result struct {
	// HasValid is true when at least one rule survived structural checks and
	// date resolution, even if duplicate elimination later removed all of them
	HasValid   bool
	Valid      []Rule
	Invalid    []Invalid
	Unresolved []Rule
	Duplicates []Duplicate
}

// 🔍 Validator checks rule rows
type Validator struct {
	validate *validator.Validate
}

// 🏭 NewValidator creates a rule validator
func NewValidator() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("col"); name != "" {
			return name
		}
		return fld.Name
	})

	if err := v.RegisterValidation("rulenum", func(fl validator.FieldLevel) bool {
		return ruleNumPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, errors.Errorf("registering rulenum validation: %w", err)
	}

	if err := v.RegisterValidation("nospace", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
	}); err != nil {
		return nil, errors.Errorf("registering nospace validation: %w", err)
	}

	return &Validator{validate: v}, nil
}

// Check returns the reasons a row is rejected, or nil when it is a valid active rule
func (v *Validator) Check(row Row) ([]string, error) {
	fields := ruleFields{
		Num:       row.Num,
		BatchCode: row.BatchCode,
		Mode:      strings.ToLower(row.Mode),
		Key:       row.Key,
		Value:     row.Value,
		Active:    strings.ToUpper(row.Active),
	}

	err := v.validate.Struct(fields)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, errors.Errorf("validating rule: %w", err)
	}

	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		reasons = append(reasons, describe(fe))
	}
	return reasons, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is empty", fe.Field())
	case "rulenum":
		return fmt.Sprintf("%s %q does not match R###", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s %q is not one of new, update", fe.Field(), fe.Value())
	case "nospace":
		return fmt.Sprintf("%s %q contains spaces", fe.Field(), fe.Value())
	case "eq":
		return fmt.Sprintf("%s %q is not TRUE", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// 🎯 Validate splits rows into valid and invalid rules, resolves
// DATE_MOIS_PRECEDENT against the processing date and drops every rule of a
// duplicated (batch code, key) pair.
func (v *Validator) Validate(ctx context.Context, rows []Row, processingDate string) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	res := &Result{}

	var valid []Rule
	for _, row := range rows {
		reasons, err := v.Check(row)
		if err != nil {
			return nil, err
		}
		if len(reasons) > 0 {
			res.Invalid = append(res.Invalid, Invalid{Row: row, Reasons: reasons})
			continue
		}
		valid = append(valid, Rule{
			Line:      row.Line,
			Num:       row.Num,
			BatchCode: row.BatchCode,
			Mode:      Mode(strings.ToLower(row.Mode)),
			Key:       row.Key,
			Value:     row.Value,
		})
	}

	valid, res.Unresolved = resolveDates(ctx, valid, processingDate)

	for _, inv := range res.Invalid {
		logger.Warn().
			Int("line", inv.Row.Line).
			Str("rule", inv.Row.Num).
			Str("batch_code", inv.Row.BatchCode).
			Str("mode", inv.Row.Mode).
			Str("key", inv.Row.Key).
			Str("value", inv.Row.Value).
			Str("active", inv.Row.Active).
			Strs("reasons", inv.Reasons).
			Msg("invalid rule ignored")
	}

	if len(valid) == 0 {
		logger.Warn().Int("rows", len(rows)).Msg("no valid rules")
		return res, nil
	}

	res.HasValid = true
	for _, r := range valid {
		logger.Info().
			Str("rule", r.Num).
			Str("batch_code", r.BatchCode).
			Str("mode", string(r.Mode)).
			Str("key", r.Key).
			Str("value", r.Value).
			Msg("valid rule")
	}

	res.Valid, res.Duplicates = dropDuplicates(valid)
	for _, d := range res.Duplicates {
		nums := make([]string, 0, len(d.Rules))
		values := make([]string, 0, len(d.Rules))
		for _, r := range d.Rules {
			nums = append(nums, r.Num)
			values = append(values, r.Value)
		}
		logger.Warn().
			Str("batch_code", d.BatchCode).
			Str("key", d.Key).
			Strs("rules", nums).
			Strs("values", values).
			Msg("conflicting rules dropped")
	}

	return res, nil
}

// resolveDates substitutes the declared month into DATE_MOIS_PRECEDENT rules.
// When the date cannot be resolved those rules are set aside and the others kept.
func resolveDates(ctx context.Context, rules []Rule, processingDate string) ([]Rule, []Rule) {
	hasDated := false
	for _, r := range rules {
		if r.IsPreviousDeclaredMonth() {
			hasDated = true
			break
		}
	}
	if !hasDated {
		return rules, nil
	}

	logger := zerolog.Ctx(ctx)

	month, err := PreviousDeclaredMonth(processingDate)
	if err != nil {
		var kept, unresolved []Rule
		for _, r := range rules {
			if r.IsPreviousDeclaredMonth() {
				unresolved = append(unresolved, r)
				continue
			}
			kept = append(kept, r)
		}
		nums := make([]string, 0, len(unresolved))
		for _, r := range unresolved {
			nums = append(nums, r.Num)
		}
		logger.Warn().Err(err).Strs("rules", nums).Msg("cannot resolve " + PreviousDeclaredMonthToken)
		return kept, unresolved
	}

	out := make([]Rule, len(rules))
	for i, r := range rules {
		if r.IsPreviousDeclaredMonth() {
			logger.Debug().Str("rule", r.Num).Str("value", month).Msg("resolved " + PreviousDeclaredMonthToken)
			r.Value = month
		}
		out[i] = r
	}
	return out, nil
}

type pairKey struct {
	batchCode string
	key       string
}

func dropDuplicates(rules []Rule) ([]Rule, []Duplicate) {
	groups := make(map[pairKey][]Rule)
	var order []pairKey
	for _, r := range rules {
		k := pairKey{r.BatchCode, r.Key}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	var kept []Rule
	var dups []Duplicate
	for _, r := range rules {
		if len(groups[pairKey{r.BatchCode, r.Key}]) == 1 {
			kept = append(kept, r)
		}
	}
	for _, k := range order {
		if g := groups[k]; len(g) > 1 {
			dups = append(dups, Duplicate{BatchCode: k.batchCode, Key: k.key, Rules: g})
		}
	}
	return kept, dups
}
