package services

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	apperrors "github.com/reglet-dev/composer/internal/application/errors"
	"github.com/reglet-dev/composer/internal/application/dto"
)

// CompileReportFilter compiles a boolean expression over dto.ModelReport,
// e.g. `kind == "component" && !assembled`. An empty expression yields nil.
func CompileReportFilter(expression string) (*vm.Program, error) {
	if expression == "" {
		return nil, nil
	}
	program, err := expr.Compile(expression,
		expr.Env(dto.ModelReport{}),
		expr.AsBool())
	if err != nil {
		return nil, apperrors.NewValidationError("filter", "invalid filter expression", err.Error())
	}
	return program, nil
}

// FilterModels returns the models matching program. A nil program keeps all.
// Models the expression fails on are dropped.
func FilterModels(models []dto.ModelReport, program *vm.Program) []dto.ModelReport {
	if program == nil {
		return models
	}
	out := make([]dto.ModelReport, 0, len(models))
	for _, m := range models {
		result, err := expr.Run(program, m)
		if err != nil {
			continue
		}
		if keep, ok := result.(bool); ok && keep {
			out = append(out, m)
		}
	}
	return out
}
