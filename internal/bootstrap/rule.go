// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"fmt"

	"github.com/nightchill/checkin-service/pkg/pipeline"
	"github.com/nightchill/checkin-service/pkg/rule"
	ruleBuiltin "github.com/nightchill/checkin-service/pkg/rule/builtin"
	"github.com/sirupsen/logrus"
)

// InitRuleEngine creates a rule engine with the rules from the pipeline config.
//
// ============================================================
// DEVELOPER: Register custom rule types here.
// ============================================================
// The builtin rules detect:
// - milestone_reached → a configured milestone badge was awarded
// - level_up          → the journey level went up
// - streak_threshold  → the streak reached a configured length
// - voucher_redeemed  → a voucher was redeemed
//
// Register extra types with rule.RegisterRuleType before the
// configs are built below, then reference them in
// config/pipeline.yaml.
// ============================================================
func InitRuleEngine(pipelineConfig *pipeline.Config) (*rule.Engine, *rule.Registry, error) {
	ruleBuiltin.RegisterRules()

	registry := rule.NewRegistry()
	if err := rule.RegisterRules(registry, pipelineConfig.RuleConfigs()); err != nil {
		return nil, nil, fmt.Errorf("failed to register rules: %w", err)
	}

	engine := rule.NewEngine(registry)
	logrus.Infof("initialized rule engine with %d rules", registry.Count())

	return engine, registry, nil
}
