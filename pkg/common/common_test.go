// Copyright (c) 2023 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"context"
	"errors"
	"testing"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestInterceptorLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	l := InterceptorLogger(logger)
	l.Log(context.Background(), logging.LevelWarn, "finished call", "grpc.method", "LogCheckIn", "grpc.code", "OK")

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Level != logrus.WarnLevel || entry.Message != "finished call" {
		t.Errorf("entry = %v %q", entry.Level, entry.Message)
	}
	if entry.Data["grpc.method"] != "LogCheckIn" || entry.Data["grpc.code"] != "OK" {
		t.Errorf("fields = %v", entry.Data)
	}
}

func TestNewTracerProvider(t *testing.T) {
	tp, err := NewTracerProvider("nightchill-checkin", "test", "")
	if err != nil {
		t.Fatalf("NewTracerProvider() error = %v", err)
	}
	defer tp.Shutdown(context.Background())

	if _, err := NewTracerProvider("svc", "test", "http://localhost:9411/api/v2/spans"); err != nil {
		t.Errorf("NewTracerProvider() with zipkin error = %v", err)
	}
}

func TestScope(t *testing.T) {
	scope := GetScopeFromContext(context.Background(), "Test.Scope")
	defer scope.Finish()

	if scope.Ctx == nil || scope.Log == nil {
		t.Fatal("scope should carry a context and a logger")
	}
	scope.SetAttributes("user_id", "user-1")
	scope.TraceError(errors.New("boom"))

	child := scope.NewChildScope("Test.Child")
	defer child.Finish()
	if child.TraceID != scope.TraceID {
		t.Errorf("child TraceID = %q, expected %q", child.TraceID, scope.TraceID)
	}
}
