// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package circleci models the CircleCI configuration documents that
// circlegen reads and writes: the base template, the generated config,
// per-application override fragments, and the job descriptors installed
// into the workflow's job list.
//
// The document model is deliberately narrow. Only the paths circlegen
// touches are typed — the workflow job list that gets replaced and the
// shared job's step sequence that gets extended. Everything else in the
// base template round-trips unchanged through inline passthrough maps.
//
// Steps are a tagged variant ([Step]): either a conditional when-block,
// which the merge logic understands and produces, or an opaque node
// carried through verbatim. This keeps the override merge exhaustive —
// it can only produce well-formed guards, never mis-shape the template.
package circleci
