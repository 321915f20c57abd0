// Package common holds small cross-cutting helpers shared by the
// chat pipeline and the analytics pipeline, kept dependency-free of
// any single stage so both can import it without a cycle.
package common

import (
	"context"

	"github.com/saptiva-ai/bankcopilot/internal/logger"
)

// PipelineInfo logs a structured info-level event for one pipeline
// stage, tagging every field with the stage/action pair so log
// aggregation can group turns by stage.
func PipelineInfo(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithFields(mergeStage(stage, action, fields)).Info(action)
}

// PipelineWarn logs a structured warning-level pipeline event.
func PipelineWarn(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithFields(mergeStage(stage, action, fields)).Warn(action)
}

// PipelineError logs a structured error-level pipeline event.
func PipelineError(ctx context.Context, stage, action string, fields map[string]interface{}) {
	logger.GetLogger(ctx).WithFields(mergeStage(stage, action, fields)).Error(action)
}

func mergeStage(stage, action string, fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["stage"] = stage
	out["action"] = action
	return out
}
