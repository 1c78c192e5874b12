package cmd

import (
	"context"
	"strings"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/reefcloud/reefctl/faults"
)

var queryCodeCache sync.Map

// applyQuery filters a command's JSON-ready output through a jq expression.
// Compiled programs are cached per expression for the life of the process.
func applyQuery(ctx context.Context, payload any, expression string) (any, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return payload, nil
	}

	code, err := cachedQueryCode(trimmed)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "invalid query expression", err)
	}

	runCtx := ctx
	if runCtx == nil {
		runCtx = context.Background()
	}
	iterator := code.RunWithContext(runCtx, payload)
	results := make([]any, 0, 1)
	for {
		value, ok := iterator.Next()
		if !ok {
			break
		}
		if valueErr, isErr := value.(error); isErr {
			return nil, faults.NewTypedError(faults.ValidationError,
				"failed to evaluate query expression", valueErr)
		}
		results = append(results, value)
	}

	if len(results) == 0 {
		return nil, nil
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func cachedQueryCode(expression string) (*gojq.Code, error) {
	if cached, ok := queryCodeCache.Load(expression); ok {
		if typed, ok := cached.(*gojq.Code); ok && typed != nil {
			return typed, nil
		}
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, err
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, err
	}

	actual, _ := queryCodeCache.LoadOrStore(expression, code)
	typed, _ := actual.(*gojq.Code)
	if typed == nil {
		return code, nil
	}
	return typed, nil
}
