// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import "errors"

var (
	// ErrNoAdapter is returned by Open when no adapter could be opened and
	// the null fallback is disabled.
	ErrNoAdapter = errors.New("halgpu: no usable GPU adapter")

	// ErrNotHAL is returned by NewFromProvider for providers that do not
	// expose hal objects.
	ErrNotHAL = errors.New("halgpu: provider does not expose a hal device")

	// ErrForeignObject is returned when an object created by another device
	// is passed in.
	ErrForeignObject = errors.New("halgpu: object belongs to another device")

	// ErrUnknownAddress is returned when a GPU address does not fall inside
	// any live buffer.
	ErrUnknownAddress = errors.New("halgpu: address outside every buffer")

	// ErrUnknownHandle is returned for descriptor handles outside every heap.
	ErrUnknownHandle = errors.New("halgpu: descriptor handle outside every heap")

	// ErrFenceNotSignaled is returned by Fence.Wait for a value no Signal
	// will ever reach.
	ErrFenceNotSignaled = errors.New("halgpu: fence value never signaled")

	// ErrListClosed is returned when recording into a closed command list.
	ErrListClosed = errors.New("halgpu: command list is closed")
)
