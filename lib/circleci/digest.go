// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package circleci

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest computes the BLAKE3 digest of rendered document bytes,
// hex-encoded. Used for change detection when writing the generated
// config and for correlating runs in log output.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
