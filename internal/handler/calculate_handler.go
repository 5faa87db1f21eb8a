package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hassan123789/mathbot/internal/mathexpr"
)

// CalculateRequest is the body of POST /api/calculate.
type CalculateRequest struct {
	Expression string `json:"expression" validate:"required,max=4096"`
}

// CalculateResponse carries the evaluator's output. Error is true when Result
// describes a failure rather than a number.
type CalculateResponse struct {
	Result string `json:"result"`
	Error  bool   `json:"error"`
}

// Calculate handles POST /api/calculate. The expression goes through the same
// cleanup and evaluation as the agent's calculator tool.
func Calculate(c echo.Context) error {
	var req CalculateRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	result := mathexpr.Evaluate(req.Expression)
	return c.JSON(http.StatusOK, CalculateResponse{
		Result: result,
		Error:  strings.HasPrefix(result, mathexpr.ErrorPrefix),
	})
}
