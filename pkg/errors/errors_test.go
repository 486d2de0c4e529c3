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

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	t.Run("string test", func(t *testing.T) {
		assert.Equal(t, "invalid_argument", ErrCodeInvalidArgument.String())
		assert.Equal(t, "resource_exhausted", ErrCodeResourceExhausted.String())
		assert.Equal(t, "unavailable", ErrCodeUnavailable.String())
		assert.Equal(t, "code_999", StatusCode(999).String())
	})

	t.Run("close code test", func(t *testing.T) {
		assert.Equal(t, 1003, ErrCodeInvalidArgument.CloseCode())
		assert.Equal(t, 1009, ErrCodeResourceExhausted.CloseCode())
		assert.Equal(t, 1011, ErrCodeInternal.CloseCode())
		assert.Equal(t, 1013, ErrCodeUnavailable.CloseCode())
		assert.Equal(t, 1000, StatusCode(0).CloseCode())
	})

	t.Run("client and server classification test", func(t *testing.T) {
		assert.True(t, ErrCodeInvalidArgument.IsClientError())
		assert.False(t, ErrCodeInvalidArgument.IsServerError())
		assert.True(t, ErrCodeUnavailable.IsServerError())
		assert.False(t, ErrCodeUnavailable.IsClientError())
	})
}

func TestStatusError(t *testing.T) {
	t.Run("constructor test", func(t *testing.T) {
		err := InvalidArgument("invalid envelope")
		assert.Equal(t, "invalid envelope", err.Error())
		assert.Equal(t, ErrCodeInvalidArgument, err.Status())
		assert.Equal(t, "", err.Code())
	})

	t.Run("with code test", func(t *testing.T) {
		err := Unavailable("broker down").WithCode("ErrBrokerDown")
		assert.Equal(t, "ErrBrokerDown", err.Code())
		assert.Equal(t, ErrCodeUnavailable, err.Status())
	})

	t.Run("status through wrapping test", func(t *testing.T) {
		base := ResourceExhausted("send buffer full").WithCode("ErrSlowConsumer")
		wrapped := fmt.Errorf("publish to abc: %w", base)

		assert.True(t, errors.Is(wrapped, base))
		assert.Equal(t, ErrCodeResourceExhausted, StatusOf(wrapped))
		assert.Equal(t, "ErrSlowConsumer", CodeOf(wrapped))
		assert.True(t, IsStatus(wrapped, ErrCodeResourceExhausted))
	})

	t.Run("plain error test", func(t *testing.T) {
		err := errors.New("plain")
		assert.Equal(t, StatusCode(0), StatusOf(err))
		assert.Equal(t, "", CodeOf(err))
		assert.Equal(t, StatusCode(0), StatusOf(nil))
	})
}
