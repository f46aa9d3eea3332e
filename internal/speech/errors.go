// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import "errors"

// ErrUnavailable indicates no speech provider exists in this
// environment. Callers should fall back to text silently.
var ErrUnavailable = errors.New("speech provider unavailable")
