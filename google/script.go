package google

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/script/v1"
)

// Executor runs a function in a deployed Apps Script project.
type Executor interface {
	Execute(ctx context.Context, deployment string, function string, args ...any) (json.RawMessage, error)
}

type Script struct {
	service *script.Service
}

func NewScript(ctx context.Context, opts ...option.ClientOption) (*Script, error) {
	service, err := script.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Apps Script client (%v)", err)
	}

	return &Script{
		service: service,
	}, nil
}

// Execute runs the function against the latest saved revision of the deployment (dev mode) and
// returns the raw 'result' field of the execution response. The call is made exactly once.
func (s *Script) Execute(ctx context.Context, deployment string, function string, args ...any) (json.RawMessage, error) {
	rq := script.ExecutionRequest{
		Function:   function,
		Parameters: args,
		DevMode:    true,
	}

	debugf("executing %v on deployment %v", function, deployment)

	op, err := s.service.Scripts.Run(deployment, &rq).Context(ctx).Do()
	if err != nil {
		infof("Script execution complete with status %v", err)
		return nil, fmt.Errorf("%w: %v (%v)", ErrRemoteExecution, function, err)
	}

	if op.Error != nil {
		e := executionError(function, op.Error)

		infof("Script execution complete with status %v", e.Message)
		return nil, e
	}

	infof("Script execution complete with status %v", "OK")

	var response struct {
		Result json.RawMessage `json:"result"`
	}

	if len(op.Response) == 0 {
		return nil, fmt.Errorf("%w: %v returned an empty response", ErrParse, function)
	} else if err := json.Unmarshal(op.Response, &response); err != nil {
		return nil, fmt.Errorf("%w: invalid %v response (%v)", ErrParse, function, err)
	} else if len(response.Result) == 0 {
		return nil, fmt.Errorf("%w: %v response has no result", ErrParse, function)
	}

	return response.Result, nil
}

// Invoke executes a remote function and decodes its result as a T.
func Invoke[T any](ctx context.Context, x Executor, deployment string, function string, args ...any) (T, error) {
	var v T

	result, err := x.Execute(ctx, deployment, function, args...)
	if err != nil {
		return v, err
	}

	if err := json.Unmarshal(result, &v); err != nil {
		return v, fmt.Errorf("%w: unexpected %v result %s (%v)", ErrParse, function, result, err)
	}

	return v, nil
}

// executionError extracts the script error from the operation status. The script error details
// are a list of ExecutionError objects, the first of which carries the message thrown by the
// script.
func executionError(function string, status *script.Status) *ExecutionError {
	e := ExecutionError{
		Function: function,
		Message:  status.Message,
	}

	for _, detail := range status.Details {
		var x script.ExecutionError
		if err := json.Unmarshal(detail, &x); err == nil && x.ErrorMessage != "" {
			e.Message = x.ErrorMessage
			e.Type = x.ErrorType
			break
		}
	}

	if e.Message == "" {
		e.Message = fmt.Sprintf("error %v", status.Code)
	}

	return &e
}
