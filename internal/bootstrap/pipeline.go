// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"github.com/nightchill/checkin-service/pkg/action"
	"github.com/nightchill/checkin-service/pkg/pipeline"
	"github.com/nightchill/checkin-service/pkg/rule"
	"github.com/nightchill/checkin-service/pkg/signal"
	"github.com/sirupsen/logrus"
)

// InitPipeline creates the pipeline manager with the rule-to-action mappings.
//
// ============================================================
// DEVELOPER: Configure rule-to-action mappings
// ============================================================
// The pipeline runs: Events → Signals → Rules → Actions
//
// Mappings live in config/pipeline.yaml:
//
// rules:
//   - id: first_week_coffee
//     type: milestone_reached
//     actions: [sponsor_coffee_voucher, publish_engagement]
//
// When a rule triggers its actions run in order. If one fails,
// the actions that already ran for that trigger are rolled back.
// ============================================================
func InitPipeline(
	processor *signal.Processor,
	ruleEngine *rule.Engine,
	actionExecutor *action.Executor,
	pipelineConfig *pipeline.Config,
) *pipeline.Manager {
	ruleActions := pipelineConfig.RuleActions()
	logrus.Infof("configured %d rule-to-action mappings", len(ruleActions))

	return pipeline.NewManager(processor, ruleEngine, actionExecutor, ruleActions)
}
