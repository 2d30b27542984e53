// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package gstreamer is the GStreamer-backed engine. The engine itself needs
// cgo and builds only with the gst tag; pipeline descriptions are plain Go.
package gstreamer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ManuGH/pipview/internal/domain/session/ports"
	"github.com/ManuGH/pipview/internal/profiles"
)

// Element names referenced after parsing.
const (
	elemSource = "src"
	elemSink   = "sink"
)

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func isRTSP(address string) bool {
	u, err := url.Parse(address)
	if err != nil {
		return false
	}
	return u.Scheme == "rtsp" || u.Scheme == "rtsps" || u.Scheme == "rtspt"
}

func decoderFor(p profiles.ConnectionProfile) string {
	switch p.Decode {
	case profiles.DecodeSoftware:
		return "avdec_h264 max-threads=0 output-corrupt=false"
	case profiles.DecodeHardwareForced:
		return "vaapih264dec low-latency=true"
	default:
		return "decodebin"
	}
}

func sourceFor(address string, p profiles.ConnectionProfile) string {
	if !isRTSP(address) {
		return fmt.Sprintf("uridecodebin name=%s uri=%s", elemSource, quote(address))
	}
	protocols := "udp+tcp"
	if p.RTSPOverTCP {
		protocols = "tcp"
	}
	return fmt.Sprintf("rtspsrc name=%s location=%s latency=%d protocols=%s drop-on-latency=%t ! rtph264depay request-keyframe=true ! h264parse ! %s",
		elemSource, quote(address), p.Latency().Milliseconds(), protocols, p.LowDelay, decoderFor(p))
}

// playbackLaunch describes the render pipeline for one handle.
func playbackLaunch(address string, p profiles.ConnectionProfile, s ports.Surface) string {
	addBorders := true
	if s != nil && s.Scale() == ports.ScaleFitScreen {
		addBorders = false
	}
	sinkName := elemSink
	if s != nil {
		sinkName = s.ID()
	}
	return fmt.Sprintf("%s ! videoconvert n-threads=0 ! videoscale add-borders=%t ! autovideosink name=%s sync=%t",
		sourceFor(address, p), addBorders, quote(sinkName), !p.ClockSyncOff)
}

// recordLaunch describes the second pipeline that writes the stream to
// target while the render pipeline keeps running. RTSP sources are remuxed
// without decoding.
func recordLaunch(address, target string, p profiles.ConnectionProfile) string {
	if isRTSP(address) {
		protocols := "udp+tcp"
		if p.RTSPOverTCP {
			protocols = "tcp"
		}
		return fmt.Sprintf("rtspsrc name=%s location=%s latency=%d protocols=%s ! rtph264depay ! h264parse ! mp4mux ! filesink location=%s",
			elemSource, quote(address), p.Latency().Milliseconds(), protocols, quote(target))
	}
	return fmt.Sprintf("uridecodebin name=%s uri=%s ! videoconvert ! x264enc tune=zerolatency ! h264parse ! mp4mux ! filesink location=%s",
		elemSource, quote(address), quote(target))
}
