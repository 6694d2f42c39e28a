// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package storeerr

import "github.com/pkg/errors"

// ErrNotFound is shared by all backends so callers can match it with
// errors.Is regardless of the backend in use.
var ErrNotFound = errors.New("key not found")
