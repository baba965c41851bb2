package market

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/erazemk/trznica/internal/model"
)

// Query is a compiled boolean expression over listing fields, for example
// `category == "Books" && price < 100`.
type Query struct {
	source  string
	program *vm.Program
}

func queryEnv(l *model.Listing) map[string]any {
	price, _ := l.Price.Float64()
	return map[string]any{
		"name":        l.Name,
		"description": l.Description,
		"seller":      l.SellerName,
		"category":    l.Category,
		"status":      l.Status,
		"price":       price,
		"quantity":    l.Quantity,
		"images":      len(l.Images),
	}
}

// CompileQuery compiles src. Unknown fields and non-boolean results are
// rejected as validation errors.
func CompileQuery(src string) (*Query, error) {
	program, err := expr.Compile(src, expr.Env(queryEnv(&model.Listing{})), expr.AsBool())
	if err != nil {
		return nil, model.Invalid("where", err.Error())
	}
	return &Query{source: src, program: program}, nil
}

// String returns the query source.
func (q *Query) String() string {
	return q.source
}

// Match reports whether l satisfies the query.
func (q *Query) Match(l *model.Listing) (bool, error) {
	out, err := expr.Run(q.program, queryEnv(l))
	if err != nil {
		return false, fmt.Errorf("evaluating query: %w", err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Apply returns the matching listings in collection order.
func (q *Query) Apply(listings []model.Listing) ([]model.Listing, error) {
	out := []model.Listing{}
	for i := range listings {
		ok, err := q.Match(&listings[i])
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, listings[i])
		}
	}
	return out, nil
}

// Select applies f and, when where is not empty, the compiled where query.
func Select(listings []model.Listing, f Filter, where string) ([]model.Listing, error) {
	out := f.Apply(listings)
	if where == "" {
		return out, nil
	}
	q, err := CompileQuery(where)
	if err != nil {
		return nil, err
	}
	return q.Apply(out)
}
