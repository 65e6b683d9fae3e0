package filter

import (
	"time"

	"go.uber.org/zap"
)

// EvaluatorLogEvent describes one filter evaluation.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Member   string
	Result   bool
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// ZapEvaluatorLogger logs successful evaluations at debug level and failures
// at warn level on a logger named "filter".
func ZapEvaluatorLogger(logger *zap.Logger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	logger = logger.Named("filter")
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		fields := []zap.Field{
			zap.String("engine", event.Engine),
			zap.String("expr", event.Expr),
			zap.String("member", event.Member),
			zap.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			logger.Warn("filter evaluation failed", append(fields, zap.Error(event.Err))...)
			return
		}
		logger.Debug("filter evaluated", append(fields, zap.Bool("result", event.Result))...)
	})
}
