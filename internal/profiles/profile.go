// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package profiles

import (
	"fmt"
	"time"
)

// DecodePath is the decoder preference handed to the engine.
type DecodePath string

const (
	DecodeSoftware       DecodePath = "software"
	DecodeHardware       DecodePath = "hardware"        // use hardware when available
	DecodeHardwareForced DecodePath = "hardware_forced" // fail rather than fall back
)

// ConnectionProfile is an immutable bundle of latency/buffering tuning.
// Profiles are resolved, never patched: callers receive copies.
type ConnectionProfile struct {
	Name            string
	NetworkCaching  time.Duration
	LiveCaching     time.Duration
	FileCaching     time.Duration
	MuxCaching      time.Duration
	FrameBufferSize int // RTSP frame buffer, bytes
	Decode          DecodePath
	RTSPOverTCP     bool
	ClockJitterZero bool // drop jitter compensation
	ClockSyncOff    bool // disable clock synchronisation
	LowDelay        bool
	RealTime        bool // real-time priority where the platform allows it
}

// Options renders the profile as engine option strings for engines that take
// libVLC-style per-media options.
func (p ConnectionProfile) Options() []string {
	opts := []string{
		fmt.Sprintf(":network-caching=%d", p.NetworkCaching.Milliseconds()),
		fmt.Sprintf(":live-caching=%d", p.LiveCaching.Milliseconds()),
		fmt.Sprintf(":file-caching=%d", p.FileCaching.Milliseconds()),
	}
	if p.MuxCaching > 0 {
		opts = append(opts, fmt.Sprintf(":sout-mux-caching=%d", p.MuxCaching.Milliseconds()))
	}
	if p.FrameBufferSize > 0 {
		opts = append(opts, fmt.Sprintf(":rtsp-frame-buffer-size=%d", p.FrameBufferSize))
	}
	if p.RTSPOverTCP {
		opts = append(opts, ":rtsp-tcp")
	}
	if p.ClockJitterZero {
		opts = append(opts, ":clock-jitter=0")
	}
	if p.ClockSyncOff {
		opts = append(opts, ":clock-synchro=0")
	}
	if p.LowDelay {
		opts = append(opts, ":low-delay")
	}
	if p.RealTime {
		opts = append(opts, ":real-time")
	}
	switch p.Decode {
	case DecodeSoftware:
		opts = append(opts, ":avcodec-hw=none")
	case DecodeHardwareForced:
		opts = append(opts, ":avcodec-hw=any", ":hw-decoder-forced")
	default:
		opts = append(opts, ":avcodec-hw=any")
	}
	return opts
}

// Latency is the jitter-buffer budget for engines that take a single latency
// knob (e.g. rtspsrc).
func (p ConnectionProfile) Latency() time.Duration {
	if p.LiveCaching > p.NetworkCaching {
		return p.LiveCaching
	}
	return p.NetworkCaching
}
