/*
 * Copyright 2025 The Collabboard Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logging

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	cerrors "github.com/collabboard/collabboard/pkg/errors"
)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Level
	}{
		{name: "nil error", err: nil, expected: LevelDebug},
		{name: "context canceled", err: context.Canceled, expected: LevelDebug},
		{
			name:     "normal closure",
			err:      &websocket.CloseError{Code: websocket.CloseNormalClosure},
			expected: LevelDebug,
		},
		{
			name:     "going away",
			err:      &websocket.CloseError{Code: websocket.CloseGoingAway},
			expected: LevelDebug,
		},
		{
			name:     "abnormal closure",
			err:      &websocket.CloseError{Code: websocket.CloseAbnormalClosure},
			expected: LevelInfo,
		},
		{
			name:     "invalid argument",
			err:      fmt.Errorf("frame: %w", cerrors.InvalidArgument("invalid envelope")),
			expected: LevelInfo,
		},
		{
			name:     "slow consumer",
			err:      cerrors.ResourceExhausted("send buffer full"),
			expected: LevelWarn,
		},
		{
			name:     "broker unavailable",
			err:      cerrors.Unavailable("broker down"),
			expected: LevelError,
		},
		{
			name:     "server shutdown",
			err:      cerrors.Unavailable("server is shutting down").WithCode(CodeServerShutdown),
			expected: LevelInfo,
		},
		{
			name:     "wrapped server shutdown",
			err:      fmt.Errorf("write: %w", cerrors.Unavailable("server is shutting down").WithCode(CodeServerShutdown)),
			expected: LevelInfo,
		},
		{name: "plain error", err: errors.New("regular error"), expected: LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, levelOf(tt.err))
		})
	}
}

func TestLevel(t *testing.T) {
	t.Run("string test", func(t *testing.T) {
		assert.Equal(t, "debug", LevelDebug.String())
		assert.Equal(t, "info", LevelInfo.String())
		assert.Equal(t, "warn", LevelWarn.String())
		assert.Equal(t, "error", LevelError.String())
	})

	t.Run("set log level test", func(t *testing.T) {
		defer func() { assert.NoError(t, SetLogLevel("info")) }()

		assert.NoError(t, SetLogLevel("debug"))
		assert.True(t, Enabled(zapcore.DebugLevel))

		assert.NoError(t, SetLogLevel("WARN"))
		assert.False(t, Enabled(zapcore.InfoLevel))
		assert.True(t, Enabled(zapcore.ErrorLevel))

		assert.Error(t, SetLogLevel("verbose"))
	})

	t.Run("context logger test", func(t *testing.T) {
		logger := New("test", NewField("channel", "c1"))
		ctx := With(context.Background(), logger)
		assert.Equal(t, logger, From(ctx))
		assert.Equal(t, DefaultLogger(), From(context.Background()))
	})
}
