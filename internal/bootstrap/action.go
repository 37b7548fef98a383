// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"fmt"

	"github.com/nightchill/checkin-service/pkg/action"
	actionBuiltin "github.com/nightchill/checkin-service/pkg/action/builtin"
	"github.com/nightchill/checkin-service/pkg/pipeline"
	"github.com/nightchill/checkin-service/pkg/service"
	"github.com/sirupsen/logrus"
)

// InitActionExecutor creates an action executor with the actions from the pipeline config.
//
// ============================================================
// DEVELOPER: Register custom action types here.
// ============================================================
// The builtin actions:
// - issue_voucher → issues a sponsored voucher (rolled back by revoking it)
// - publish_event → publishes the trigger to the event bus
// - log_event     → writes a structured log line
//
// Actions reach external services only through deps. Add a
// field to service.Dependencies when a new action needs one.
// ============================================================
func InitActionExecutor(
	pipelineConfig *pipeline.Config,
	deps *service.Dependencies,
) (*action.Executor, *action.Registry, error) {
	actionBuiltin.RegisterActions(deps)

	registry := action.NewRegistry()
	if err := action.RegisterActions(registry, pipelineConfig.ActionConfigs()); err != nil {
		return nil, nil, fmt.Errorf("failed to register actions: %w", err)
	}

	executor := action.NewExecutor(registry)
	logrus.Infof("initialized action executor with %d actions", registry.Count())

	return executor, registry, nil
}
