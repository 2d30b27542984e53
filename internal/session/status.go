// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import "github.com/ManuGH/pipview/internal/domain/session/model"

// Status returns a read-only view of the controller. A closed controller
// reports Idle with the close error.
func (c *Controller) Status() model.Status {
	var s model.Status
	if err := c.do(func() { s = c.status() }); err != nil {
		return model.Status{SessionID: c.id, Phase: model.PhaseIdle, LastError: err.Error()}
	}
	return s
}

func (c *Controller) status() model.Status {
	s := model.Status{
		SessionID:     c.id,
		Phase:         c.st.Phase,
		Reason:        c.st.Reason,
		SourceAddress: c.st.SourceAddress,
		Position:      c.st.Position,
		BufferingPct:  c.st.BufferingPct,
	}
	if c.handle != "" {
		s.Profile = c.profile.Name
		if c.st.Phase.IsLive() {
			s.Position = c.currentPosition()
		}
	}
	if rs, ok := c.rec.Active(); ok {
		s.RecordingTarget = rs.OutputTarget
		s.RecordingElapsed = c.rec.Elapsed()
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Phase is shorthand for Status().Phase.
func (c *Controller) Phase() model.Phase {
	return c.Status().Phase
}
