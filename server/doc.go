// Package server exposes the engine control pipeline over HTTP.
//
// The surface is a chi router assembled from per-resource handlers:
// request processing, run inspection, system status, tool discovery and
// control-center snapshots. Handlers never surface pipeline failures as
// 5xx responses; a failed run still produces a well-formed response
// envelope with the error recorded inside it, so only malformed input is
// rejected at the transport layer.
package server
