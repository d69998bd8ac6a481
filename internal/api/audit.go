package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/hearth-core/internal/audit"
	"github.com/nerrad567/hearth-core/internal/auth"
)

// record appends to the audit trail. Failures are logged and never reach
// the caller.
func (s *Server) record(r *http.Request, action, entity, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}

	subject := audit.AnonymousSubject
	if claims, ok := r.Context().Value(ctxKeyClaims).(*auth.Claims); ok && claims.Subject != "" {
		subject = claims.Subject
	}

	e := &audit.Entry{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Subject:  subject,
		Details:  details,
	}
	if err := s.audit.Record(r.Context(), e); err != nil {
		s.logger.Warn("failed to record audit entry", "action", action, "error", err)
	}
}

// handleAuditLog returns the audit trail, newest first.
//
// Query parameters:
//   - action: filter by action (e.g. schedule.set)
//   - entity: filter by entity (device, schedule, security, maintenance)
//   - entity_id: filter by entity ID
//   - limit: page size (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit trail is disabled")
		return
	}

	q := r.URL.Query()
	f := audit.Filter{
		Action:   q.Get("action"),
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		f.Offset = n
	}

	page, err := s.audit.List(r.Context(), f)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, page)
}
