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

// Package errors provides status-carrying errors shared by the relay server
// and the synchronization clients.
package errors

import "fmt"

// StatusCode represents the category of an error. The numeric values follow
// the gRPC/Connect code space so that they stay familiar in logs.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates a frame or payload that can never be
	// processed, regardless of the state of the system.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that some requested entity was not found.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeResourceExhausted indicates that a buffer or a size limit has
	// been exceeded, for example a participant that does not drain its
	// outbound queue.
	ErrCodeResourceExhausted StatusCode = 8

	// ErrCodeFailedPrecondition indicates that the operation was rejected
	// because the target is not in a state required for it, e.g. it has
	// already been closed.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeInternal indicates that some invariants expected by the
	// underlying system have been broken.
	ErrCodeInternal StatusCode = 13

	// ErrCodeUnavailable indicates that the peer or the broker is currently
	// unreachable.
	ErrCodeUnavailable StatusCode = 14
)

// String returns the string representation of the error code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// CloseCode returns the WebSocket close code (RFC 6455, section 7.4.1) that
// the relay sends when it terminates a channel because of an error with
// this status.
func (c StatusCode) CloseCode() int {
	switch c {
	case ErrCodeInvalidArgument:
		return 1003 // unsupported data
	case ErrCodeResourceExhausted:
		return 1009 // message too big
	case ErrCodeFailedPrecondition:
		return 1008 // policy violation
	case ErrCodeUnavailable:
		return 1013 // try again later
	case ErrCodeInternal:
		return 1011 // internal error
	default:
		return 1000 // normal closure
	}
}

// IsClientError returns true if the error code represents a problem caused
// by the participant on the other side of the channel.
func (c StatusCode) IsClientError() bool {
	switch c {
	case ErrCodeInvalidArgument, ErrCodeNotFound, ErrCodeResourceExhausted,
		ErrCodeFailedPrecondition:
		return true
	default:
		return false
	}
}

// IsServerError returns true if the error code represents a server-side error.
func (c StatusCode) IsServerError() bool {
	switch c {
	case ErrCodeInternal, ErrCodeUnavailable:
		return true
	default:
		return false
	}
}
