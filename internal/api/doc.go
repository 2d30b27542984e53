// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes the viewer over a small JSON control API. It stands in
// for the host UI: every route maps onto one host signal or user action.
package api
