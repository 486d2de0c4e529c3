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
	"time"

	"github.com/gorilla/websocket"

	cerrors "github.com/collabboard/collabboard/pkg/errors"
)

// CodeServerShutdown is the code of the error channels are closed with when
// the server shuts down.
const CodeServerShutdown = "ErrServerShutdown"

// Level represents the severity a channel termination is logged with.
type Level int

// Below are the levels a channel termination can be logged with.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	}
	return "warn"
}

// levelOf classifies the error that terminated a relay channel.
func levelOf(err error) Level {
	if err == nil || errors.Is(err, context.Canceled) {
		return LevelDebug
	}

	// Participants leaving is the normal way for a channel to end.
	if websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return LevelDebug
	}
	if websocket.IsUnexpectedCloseError(err) {
		return LevelInfo
	}

	// A graceful shutdown closes every channel on purpose.
	if cerrors.CodeOf(err) == CodeServerShutdown {
		return LevelInfo
	}

	switch cerrors.StatusOf(err) {
	case cerrors.ErrCodeInvalidArgument, cerrors.ErrCodeNotFound:
		return LevelInfo
	case cerrors.ErrCodeResourceExhausted, cerrors.ErrCodeFailedPrecondition:
		return LevelWarn
	case cerrors.ErrCodeInternal, cerrors.ErrCodeUnavailable:
		return LevelError
	}

	return LevelWarn
}

// LogChannelClose logs the termination of a relay channel with a level
// derived from the error that ended it.
func LogChannelClose(logger Logger, channelID string, duration time.Duration, err error) {
	const template = "CHAN: %s closed after %s => %v"
	switch levelOf(err) {
	case LevelDebug:
		logger.Debugf(template, channelID, duration, err)
	case LevelInfo:
		logger.Infof(template, channelID, duration, err)
	case LevelError:
		logger.Errorf(template, channelID, duration, err)
	default:
		logger.Warnf(template, channelID, duration, err)
	}
}
