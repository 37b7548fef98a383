// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper transitions past-expiry vouchers to expired
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// ExpirySweeper runs a Sweeper on a fixed interval until stopped.
type ExpirySweeper struct {
	sweeper  Sweeper
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewExpirySweeper creates a sweeper. A zero interval disables it.
func NewExpirySweeper(sweeper Sweeper, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{sweeper: sweeper, interval: interval}
}

// Start launches the sweep loop
func (s *ExpirySweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		logrus.Info("voucher expiry sweep disabled")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logrus.Infof("voucher expiry sweep every %v", s.interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	n, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		logrus.Errorf("voucher expiry sweep failed: %v", err)
		return
	}
	if n > 0 {
		logrus.Infof("expired %d vouchers", n)
	}
}

// Stop ends the loop and waits for an in-flight sweep
func (s *ExpirySweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}
