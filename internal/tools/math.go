package tools

import (
	"fmt"
	"math"

	"github.com/aurelio-voice/aurelio-server/internal/session"
)

// NewPerformMathOperationSpec returns the perform_math_operation tool.
// Divide-by-zero and negative square roots return a textual error in the
// result payload rather than a Go error.
func NewPerformMathOperationSpec() Spec {
	return Spec{
		Name:         "perform_math_operation",
		ParamSummary: "operation, number1, number2?",
		Handler: func(p Params, sess *session.Session) (Result, error) {
			enqueue(sess, "Calculating!")

			operation := p.str("operation", "")
			number1, _ := p.float("number1")
			number2, _ := p.float("number2")

			var result float64
			switch operation {
			case "addition":
				result = number1 + number2
			case "subtraction":
				result = number1 - number2
			case "multiplication":
				result = number1 * number2
			case "division":
				if number2 == 0 {
					return Result{"response": "Division by zero is undefined."}, nil
				}
				result = number1 / number2
			case "power":
				result = math.Pow(number1, number2)
			case "square_root":
				if number1 < 0 {
					return Result{"response": "Square root of a negative number is undefined in real numbers."}, nil
				}
				result = math.Sqrt(number1)
			default:
				return Result{"response": fmt.Sprintf("Operation %q is not supported.", operation)}, nil
			}

			return Result{"response": fmt.Sprintf("Result of %s: %v", operation, result)}, nil
		},
	}
}
