// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

// Package services adapts the application's long-running components to
// suture's Serve(ctx) contract.
//
// The sync manager, notification scheduler and notification dispatcher
// all expose a Start/Stop lifecycle; JobService translates that into a
// single blocking Serve call. HTTPServerService does the same for
// http.Server's ListenAndServe/Shutdown pair.
package services
