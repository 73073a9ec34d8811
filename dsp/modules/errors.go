package modules

import "errors"

// ErrEmptySample is returned by LoadSample for empty or non-finite input.
var ErrEmptySample = errors.New("modules: empty sample")

// ErrSnapshotSlot is returned by CaptureSnapshot for a slot outside
// [0, MorphSnapshots).
var ErrSnapshotSlot = errors.New("modules: snapshot slot out of range")

// ErrNotPrepared is returned by operations that need a prepared module.
var ErrNotPrepared = errors.New("modules: not prepared")
