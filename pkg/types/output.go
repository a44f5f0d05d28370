package types

import (
	"runtime/debug"

	"golang.org/x/exp/slices"
)

const PredictionKey = "prediction"

const (
	ErrorCodeKey  = "error_code"
	MessageKey    = "message"
	StackTraceKey = "stack_trace"
)

// ErrorKeys is the exact key set a model output must carry when it reports a
// failure instead of a prediction.
var ErrorKeys = []string{ErrorCodeKey, MessageKey, StackTraceKey}

// Result is the outcome of a prediction call: either a payload to publish
// under the prediction key, or a structured error. The conversion to the wire
// mapping happens at the serving boundary instead of via an implicit wrapper
// around the predict function.
type Result struct {
	payload interface{}
	code    string
	message string
	trace   string
	failed  bool
}

func Success(payload interface{}) Result {
	return Result{payload: payload}
}

func Failure(code, message, trace string) Result {
	return Result{code: code, message: message, trace: trace, failed: true}
}

func (r Result) Failed() bool { return r.failed }

// Output renders the result as the model output mapping.
func (r Result) Output() map[string]interface{} {
	if r.failed {
		return map[string]interface{}{
			ErrorCodeKey:  r.code,
			MessageKey:    r.message,
			StackTraceKey: r.trace,
		}
	}
	return map[string]interface{}{PredictionKey: r.payload}
}

// ErrorOutput converts a prediction error into the structured error mapping,
// capturing the current stack.
func ErrorOutput(err error) map[string]interface{} {
	return Failure("PredictionError", err.Error(), string(debug.Stack())).Output()
}

// IsErrorOutput reports whether the output's key set is exactly the error
// key set.
func IsErrorOutput(output map[string]interface{}) bool {
	if len(output) != len(ErrorKeys) {
		return false
	}
	for _, key := range ErrorKeys {
		if _, ok := output[key]; !ok {
			return false
		}
	}
	return true
}

// OutputKeys returns the sorted key set of a model output, for diagnostics.
func OutputKeys(output map[string]interface{}) []string {
	keys := make([]string, 0, len(output))
	for key := range output {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
