// Package segment provides CEL-compiled ad-hoc user segments. A segment is a
// boolean expression over user attributes that narrows the filtered user set
// on top of the demographic toggles, e.g. `age > 30 && nat == "FR"`.
package segment

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/gauge-analytics/influence/internal/domain"
)

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

// celEnv builds the shared CEL environment exposing user attributes.
func celEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("age", cel.IntType),
			cel.Variable("gender", cel.StringType),
			cel.Variable("age_group", cel.StringType),
			cel.Variable("nat", cel.StringType),
			cel.Variable("first_name", cel.StringType),
			cel.Variable("last_name", cel.StringType),
		)
	})
	return env, envErr
}

// Segment is a compiled user-segment expression.
type Segment struct {
	expression string
	program    cel.Program
}

// Compile validates and compiles an expression. The expression must evaluate
// to a boolean; anything else is rejected here so an invalid segment can
// never replace the active one.
func Compile(expression string) (*Segment, error) {
	e, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}

	ast, iss := e.Compile(expression)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile segment: %w", iss.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("segment must evaluate to bool, got %s", ast.OutputType())
	}

	prg, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program segment: %w", err)
	}

	return &Segment{expression: expression, program: prg}, nil
}

// Expression returns the source expression.
func (s *Segment) Expression() string {
	return s.expression
}

// Match evaluates the segment against a user.
func (s *Segment) Match(u domain.User) (bool, error) {
	out, _, err := s.program.Eval(map[string]interface{}{
		"age":        int64(u.Age),
		"gender":     u.Gender,
		"age_group":  u.AgeGroup,
		"nat":        u.Nat,
		"first_name": u.Name.First,
		"last_name":  u.Name.Last,
	})
	if err != nil {
		return false, fmt.Errorf("eval segment: %w", err)
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("segment returned non-bool: %v", out)
	}
	return bool(b), nil
}
