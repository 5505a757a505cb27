package tool_calculator

import (
	"context"
	"errors"
	"fmt"

	"github.com/elee1766/threadchat/src/agent"
)

// Tool name constant
const Name = "calculator"

const description = `Perform a basic arithmetic operation on two numbers.

Supported operations: add, sub, mul, div.`

// ErrDivisionByZero is reported when operation is div and second_num is 0.
var ErrDivisionByZero = errors.New("Division by zero is not allowed")

// Input represents the parameters for calculator
type Input struct {
	FirstNum  float64 `json:"first_num" required:"true" description:"The first operand"`
	SecondNum float64 `json:"second_num" required:"true" description:"The second operand"`
	Operation string  `json:"operation" required:"true" enum:"add,sub,mul,div" description:"One of add, sub, mul, div"`
}

// Output echoes the operands with the result.
type Output struct {
	FirstNum  float64 `json:"first_num"`
	SecondNum float64 `json:"second_num"`
	Operation string  `json:"operation"`
	Result    float64 `json:"result"`
}

// Tool returns the calculator tool definition using GenericTool
func Tool() (agent.Tool, error) {
	return agent.NewGenericTool(Name, description, handler)
}

func handler(ctx context.Context, in Input) (Output, error) {
	result, err := Calculate(in.FirstNum, in.SecondNum, in.Operation)
	if err != nil {
		return Output{}, err
	}
	return Output{
		FirstNum:  in.FirstNum,
		SecondNum: in.SecondNum,
		Operation: in.Operation,
		Result:    result,
	}, nil
}

// Calculate applies op to a and b.
func Calculate(a, b float64, op string) (float64, error) {
	switch op {
	case "add":
		return a + b, nil
	case "sub":
		return a - b, nil
	case "mul":
		return a * b, nil
	case "div":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("unsupported operation '%s'", op)
	}
}
