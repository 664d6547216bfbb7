// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// The circlegen binary generates the CircleCI pipeline configuration
// for a repository of example applications: it cross-joins the
// discovered applications against released versions and their test
// suites, installs the resulting job matrix into a base template, and
// injects per-application override steps into the shared test job.
//
// Subcommands:
//
//	generate   discover inputs and write the generated configuration
//	validate   check a base template for the required structure
//	version    print build information
package main
