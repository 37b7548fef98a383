// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"github.com/nightchill/checkin-service/pkg/signal"
	signalBuiltin "github.com/nightchill/checkin-service/pkg/signal/builtin"
	"github.com/sirupsen/logrus"
)

// InitSignalProcessor creates a signal processor with the builtin event processors.
//
// ============================================================
// DEVELOPER: Register custom event processors here.
// ============================================================
// Event processors turn committed domain events into signals
// enriched with the user's journey state.
//
// The builtin processors handle:
// - checkin_completed → check_in signal
// - reward_redeemed   → voucher_redeemed signal
//
// To add one, implement signal.EventProcessor in
// pkg/signal/builtin/ and register it in event_processors.go.
// ============================================================
func InitSignalProcessor(stateStore signal.StateStore) *signal.Processor {
	processor := signal.NewProcessor(stateStore)
	signalBuiltin.RegisterEventProcessors(processor.GetEventProcessorRegistry())

	logrus.Infof("initialized signal processor with %d event processors",
		processor.GetEventProcessorRegistry().Count())

	return processor
}
