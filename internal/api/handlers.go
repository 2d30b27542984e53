// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/pipview/internal/domain/session/model"
	xglog "github.com/ManuGH/pipview/internal/log"
	"github.com/ManuGH/pipview/internal/viewer"
)

const maxBodyBytes = 1 << 16

type playRequest struct {
	Address string `json:"address"`
}

type recordRequest struct {
	Target string `json:"target,omitempty"`
}

type resumeRequest struct {
	Address    string `json:"address,omitempty"`
	PositionMS int64  `json:"positionMs,omitempty"`
	Resume     bool   `json:"resume,omitempty"`
}

type permissionRequest struct {
	Granted bool `json:"granted"`
}

type artifactResponse struct {
	OutputTarget  string    `json:"outputTarget"`
	SourceAddress string    `json:"sourceAddress"`
	StartedAt     time.Time `json:"startedAt"`
	StoppedAt     time.Time `json:"stoppedAt"`
	DurationMS    int64     `json:"durationMs"`
	Partial       bool      `json:"partial"`
}

type snapshotResponse struct {
	SourceAddress string            `json:"sourceAddress,omitempty"`
	PositionMS    int64             `json:"positionMs"`
	Artifact      *artifactResponse `json:"artifact,omitempty"`
}

type statusResponse struct {
	Surface           model.SurfaceKind `json:"surface"`
	SessionID         string            `json:"sessionId"`
	Phase             model.Phase       `json:"phase"`
	Reason            model.ReasonCode  `json:"reason,omitempty"`
	SourceAddress     string            `json:"sourceAddress,omitempty"`
	Profile           string            `json:"profile,omitempty"`
	PositionMS        int64             `json:"positionMs"`
	BufferingPct      float64           `json:"bufferingPct"`
	Recording         bool              `json:"recording"`
	RecordingTarget   string            `json:"recordingTarget,omitempty"`
	RecordingElapsedS float64           `json:"recordingElapsedSeconds,omitempty"`
	LastError         string            `json:"lastError,omitempty"`
}

func toArtifact(a model.ArtifactHandle) *artifactResponse {
	return &artifactResponse{
		OutputTarget:  a.OutputTarget,
		SourceAddress: xglog.MaskAddress(a.SourceAddress),
		StartedAt:     a.StartedAt,
		StoppedAt:     a.StoppedAt,
		DurationMS:    a.Duration.Milliseconds(),
		Partial:       a.Partial,
	}
}

func toSnapshot(s model.SessionSnapshot) snapshotResponse {
	resp := snapshotResponse{PositionMS: s.Position.Milliseconds()}
	if s.SourceAddress != "" {
		resp.SourceAddress = xglog.MaskAddress(s.SourceAddress)
	}
	if s.Artifact != nil {
		resp.Artifact = toArtifact(*s.Artifact)
	}
	return resp
}

func toStatus(st viewer.Status) statusResponse {
	s := st.Session
	resp := statusResponse{
		Surface:           st.Surface,
		SessionID:         s.SessionID,
		Phase:             s.Phase,
		Reason:            s.Reason,
		Profile:           s.Profile,
		PositionMS:        s.Position.Milliseconds(),
		BufferingPct:      s.BufferingPct,
		Recording:         s.RecordingTarget != "",
		RecordingTarget:   s.RecordingTarget,
		RecordingElapsedS: s.RecordingElapsed.Seconds(),
		LastError:         s.LastError,
	}
	if s.SourceAddress != "" {
		resp.SourceAddress = xglog.MaskAddress(s.SourceAddress)
	}
	return resp
}

// decodeBody decodes an optional JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func wantsWait(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("wait"))
	return err == nil && v
}

// waitIfRequested blocks until Playing when ?wait=true. Abandoning the wait
// does not cancel the activation.
func (s *Server) waitIfRequested(r *http.Request) error {
	if !wantsWait(r) {
		return nil
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.WaitTimeout)
	defer cancel()
	return s.host.WaitPlaying(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.cfg.Version})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStatus(s.host.Status()))
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if req.Address == "" {
		writeBadRequest(w, r, "address is required")
		return
	}
	if err := s.host.Play(r.Context(), req.Address); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.waitIfRequested(r); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toStatus(s.host.Status()))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	snap, err := s.host.Stop(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshot(snap))
}

func (s *Server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if err := s.host.StartRecording(r.Context(), req.Target); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatus(s.host.Status()))
}

func (s *Server) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.host.StopRecording(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toArtifact(artifact))
}

func (s *Server) handleEnterOverlay(w http.ResponseWriter, r *http.Request) {
	snap, err := s.host.EnterOverlay(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !snap.IsEmpty() {
		if err := s.waitIfRequested(r); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toSnapshot(snap))
}

func (s *Server) handleExitOverlay(w http.ResponseWriter, r *http.Request) {
	snap, err := s.host.ExitOverlay(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !snap.IsEmpty() {
		if err := s.waitIfRequested(r); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toSnapshot(snap))
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var pending *model.HandoffEntry
	if req.Address != "" {
		pending = &model.HandoffEntry{
			SourceAddress:   req.Address,
			Position:        time.Duration(req.PositionMS) * time.Millisecond,
			ResumeRequested: req.Resume,
		}
	}
	if err := s.host.Resume(r.Context(), pending); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatus(s.host.Status()))
}

func (s *Server) handleGetPermission(w http.ResponseWriter, _ *http.Request) {
	switch {
	case s.permission != nil:
		writeJSON(w, http.StatusOK, permissionRequest{Granted: s.permission.HasStoragePermission()})
	case s.cfg.Gate != nil:
		writeJSON(w, http.StatusOK, permissionRequest{Granted: s.cfg.Gate.HasStoragePermission()})
	default:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_supported"})
	}
}

// handleRequestPermission asks the gate for storage permission and waits for
// its answer, bounded by WaitTimeout.
func (s *Server) handleRequestPermission(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Gate == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_supported"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.WaitTimeout)
	defer cancel()

	select {
	case granted, ok := <-s.cfg.Gate.RequestStoragePermission(ctx):
		logger := xglog.WithContext(r.Context(), xglog.WithComponent("api"))
		logger.Info().
			Str(xglog.FieldEvent, "permission.requested").
			Bool("granted", ok && granted).
			Msg("storage permission requested")
		writeJSON(w, http.StatusOK, permissionRequest{Granted: ok && granted})
	case <-ctx.Done():
		writeDomainError(w, r, ctx.Err())
	}
}

func (s *Server) handleSetPermission(w http.ResponseWriter, r *http.Request) {
	if s.permission == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_supported"})
		return
	}
	var req permissionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if req.Granted {
		s.permission.Grant()
	} else {
		s.permission.Revoke()
	}
	writeJSON(w, http.StatusOK, permissionRequest{Granted: s.permission.HasStoragePermission()})
}
