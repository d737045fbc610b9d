package validation

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
	"github.com/travigo/gtfs-validator/pkg/serviceorder"
)

// RuleDefinition is a configured boolean expression evaluated against every
// schedule row. A row for which the expression is true is a violation.
type RuleDefinition struct {
	Name       string `yaml:"name" validate:"required"`
	Expression string `yaml:"expression" validate:"required"`
	Message    string `yaml:"message"`
}

type CustomRule struct {
	RuleDefinition

	program *vm.Program
}

type dayEnv struct {
	DeparturesOutbound float64 `expr:"departures_outbound"`
	DeparturesReturn   float64 `expr:"departures_return"`
	Trips              float64 `expr:"trips"`
	DistanceKm         float64 `expr:"distance_km"`
	StartMinutes       float64 `expr:"start_minutes"`
	EndMinutes         float64 `expr:"end_minutes"`
}

type ruleEnv struct {
	Service           string  `expr:"service"`
	DisplayName       string  `expr:"display_name"`
	Consortium        string  `expr:"consortium"`
	ExtensionOutbound float64 `expr:"extension_outbound"`
	ExtensionReturn   float64 `expr:"extension_return"`

	Weekday  dayEnv `expr:"weekday"`
	Saturday dayEnv `expr:"saturday"`
	Sunday   dayEnv `expr:"sunday"`
	Holiday  dayEnv `expr:"holiday"`
}

func newDayEnv(day *serviceorder.DaySchedule) dayEnv {
	return dayEnv{
		DeparturesOutbound: day.DeparturesOutbound,
		DeparturesReturn:   day.DeparturesReturn,
		Trips:              day.Trips,
		DistanceKm:         day.DistanceKm,
		StartMinutes:       day.Start.Minutes(),
		EndMinutes:         day.End.Minutes(),
	}
}

func newRuleEnv(row *serviceorder.ScheduleRow) ruleEnv {
	return ruleEnv{
		Service:           row.ServiceCode,
		DisplayName:       row.DisplayName,
		Consortium:        row.Consortium,
		ExtensionOutbound: row.ExtensionOutbound,
		ExtensionReturn:   row.ExtensionReturn,
		Weekday:           newDayEnv(&row.Weekday),
		Saturday:          newDayEnv(&row.Saturday),
		Sunday:            newDayEnv(&row.Sunday),
		Holiday:           newDayEnv(&row.Holiday),
	}
}

// CompileRules type checks every rule expression against the row environment
func CompileRules(definitions []RuleDefinition) ([]CustomRule, error) {
	rules := make([]CustomRule, 0, len(definitions))

	for _, definition := range definitions {
		program, err := expr.Compile(definition.Expression, expr.Env(ruleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compiling rule %s: %w", definition.Name, err)
		}

		rules = append(rules, CustomRule{RuleDefinition: definition, program: program})
	}

	return rules, nil
}

// CheckCustomRules evaluates the configured rules against every row
func CheckCustomRules(input *Input) []Finding {
	findings := []Finding{}

	for i := range input.Schedule.Rows {
		row := &input.Schedule.Rows[i]
		env := newRuleEnv(row)

		for _, rule := range input.Rules {
			output, err := expr.Run(rule.program, env)
			if err != nil {
				log.Error().Err(err).Str("rule", rule.Name).Str("service", row.ServiceCode).Msg("Failed to evaluate rule")
				continue
			}

			if violated, _ := output.(bool); !violated {
				continue
			}

			message := rule.Message
			if message == "" {
				message = fmt.Sprintf("violates %s", rule.Expression)
			}

			findings = append(findings, Finding{
				Kind:        KindCustomRule,
				Row:         i + 1,
				ServiceCode: row.ServiceCode,
				Rule:        rule.Name,
				Message:     message,
			})
		}
	}

	return findings
}
