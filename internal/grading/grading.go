// Package grading runs a submission against a question's test suite through
// the execution gateway and aggregates a verdict.
package grading

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"mulakhat/interview/internal/judge"
	"mulakhat/interview/internal/models"
)

type Engine struct {
	exec judge.Executor
	log  *zap.Logger
}

func NewEngine(exec judge.Executor, log *zap.Logger) *Engine {
	return &Engine{exec: exec, log: log}
}

// RunSuite executes the suite in declared order, one case at a time; public
// judge endpoints are rate-sensitive, so no parallel dispatch. A failed judge
// call marks that case failed and moves on. An empty suite passes vacuously.
func (e *Engine) RunSuite(ctx context.Context, sourceCode string, languageID int, q *models.Question) (*models.SuiteResult, error) {
	results := make([]models.TestVerdict, 0, len(q.TestCases))
	allPassed := true

	for i, tc := range q.TestCases {
		res, err := e.exec.Execute(ctx, judge.ExecRequest{
			SourceCode: sourceCode,
			LanguageID: languageID,
			Stdin:      tc.Input,
		})
		if err != nil {
			e.log.Warn("test case execution failed",
				zap.String("question", q.ID), zap.Int("case", i), zap.Error(err))
			results = append(results, models.TestVerdict{
				Index:    i,
				IsHidden: tc.IsHidden,
				Passed:   false,
				Error:    "execution error",
			})
			allPassed = false
			continue
		}

		actual := normalizeOutput(res)
		expected := strings.TrimSpace(tc.ExpectedOutput)
		passed := actual == expected

		verdict := models.TestVerdict{Index: i, IsHidden: tc.IsHidden, Passed: passed}
		if !tc.IsHidden {
			verdict.Expected = expected
			verdict.Actual = actual
		}
		results = append(results, verdict)
		if !passed {
			allPassed = false
		}
	}

	return &models.SuiteResult{AllPassed: allPassed, Results: results}, nil
}

// normalizeOutput picks the first non-empty stream in stdout, compile output,
// stderr order and trims surrounding whitespace.
func normalizeOutput(res *judge.ExecResult) string {
	out := res.Stdout
	if out == "" {
		out = res.CompileOutput
	}
	if out == "" {
		out = res.Stderr
	}
	return strings.TrimSpace(out)
}
