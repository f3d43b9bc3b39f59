package api

import "net/http"

func (h *Handler) lockStatus() LockStatus {
	return LockStatus{Enabled: h.gate.Enabled(), Locked: h.gate.Locked()}
}

// GetLock handles GET /api/lock.
//
//	@Summary		PIN gate state
//	@Tags			lock
//	@Produce		json
//	@Success		200	{object}	LockStatus
//	@Security		BearerAuth
//	@Router			/lock [get]
func (h *Handler) GetLock(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.lockStatus())
}

// SetPIN handles POST /api/lock.
//
//	@Summary		Set or replace the PIN
//	@Tags			lock
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PINRequest	true	"New PIN"
//	@Success		200		{object}	LockStatus
//	@Failure		400		{object}	errResponse
//	@Failure		423		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lock [post]
func (h *Handler) SetPIN(w http.ResponseWriter, r *http.Request) {
	var req PINRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.gate.Set(req.PIN); err != nil {
		writeError(w, "set pin", err)
		return
	}
	writeJSON(w, http.StatusOK, h.lockStatus())
}

// ClearPIN handles DELETE /api/lock.
//
//	@Summary		Remove the PIN
//	@Tags			lock
//	@Success		204	"PIN removed"
//	@Failure		423	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lock [delete]
func (h *Handler) ClearPIN(w http.ResponseWriter, _ *http.Request) {
	if err := h.gate.Clear(); err != nil {
		writeError(w, "clear pin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unlock handles POST /api/lock/unlock.
//
//	@Summary		Open the journal with the PIN
//	@Tags			lock
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PINRequest	true	"PIN"
//	@Success		200		{object}	LockStatus
//	@Failure		403		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lock/unlock [post]
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req PINRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.gate.Unlock(req.PIN); err != nil {
		writeError(w, "unlock", err)
		return
	}
	writeJSON(w, http.StatusOK, h.lockStatus())
}
