package http

import (
	"context"
	"encoding/json"
	"net/http"
	"trust-multisig/internal/config"
	"trust-multisig/internal/model"
	"trust-multisig/internal/ports/http/middleware/auth"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type quorumResponse struct {
	Quorum              int             `json:"quorum"`
	RevocationThreshold int             `json:"revocationThreshold"`
	TrustedOwners       []model.Address `json:"trustedOwners"`
}

type ownerRequest struct {
	ID string `json:"id"`
}

func (ser *server) getQuorum(w http.ResponseWriter, r *http.Request) {
	ser.writeJSON(w, http.StatusOK, quorumResponse{
		Quorum:              ser.app.Quorum(),
		RevocationThreshold: ser.app.RevocationThreshold(),
		TrustedOwners:       ser.app.TrustedOwners(),
	})
}

func (ser *server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	ser.writeJSON(w, http.StatusOK, ser.app.Snapshot())
}

func (ser *server) getOwners(w http.ResponseWriter, r *http.Request) {
	ser.writeJSON(w, http.StatusOK, ser.app.Owners())
}

func (ser *server) getOwner(w http.ResponseWriter, r *http.Request) {
	ownerID := normalize(mux.Vars(r)["ownerID"])

	owner, err := ser.app.Owner(model.Address(ownerID))
	if err != nil {
		ser.engineError(w, r, err)
		return
	}
	ser.writeJSON(w, http.StatusOK, owner)
}

func (ser *server) postOwner(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ser.badRequest(w, r, "failed to decode the request: "+err.Error())
		return
	}
	newOwner := normalize(req.ID)
	if newOwner == "" {
		ser.badRequest(w, r, "id is missing")
		return
	}

	caller := callerOf(r)
	ser.logger.Info("submitting owner", zap.String("owner", newOwner), zap.String("caller", caller.String()))

	ctx, cancel := context.WithTimeout(r.Context(), config.GetRequestTimeout())
	defer cancel()

	if err := ser.app.SubmitOwner(ctx, caller, model.Address(newOwner)); err != nil {
		ser.engineError(w, r, err)
		return
	}

	owner, err := ser.app.Owner(model.Address(newOwner))
	if err != nil {
		ser.engineError(w, r, err)
		return
	}
	ser.writeJSON(w, http.StatusCreated, owner)
}

func (ser *server) putSupport(w http.ResponseWriter, r *http.Request) {
	ser.changeSupport(w, r, ser.app.SupportOwner)
}

func (ser *server) deleteSupport(w http.ResponseWriter, r *http.Request) {
	ser.changeSupport(w, r, ser.app.UnsupportOwner)
}

func (ser *server) changeSupport(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, caller, owner model.Address) error) {
	owner := model.Address(normalize(mux.Vars(r)["ownerID"]))

	ctx, cancel := context.WithTimeout(r.Context(), config.GetRequestTimeout())
	defer cancel()

	if err := change(ctx, callerOf(r), owner); err != nil {
		ser.engineError(w, r, err)
		return
	}

	updated, err := ser.app.Owner(owner)
	if err != nil {
		ser.engineError(w, r, err)
		return
	}
	ser.writeJSON(w, http.StatusOK, updated)
}

// callerOf is only used behind the auth middleware, which guarantees a principal.
func callerOf(r *http.Request) model.Address {
	principal, _ := auth.PrincipalFromContext(r.Context())
	return model.Address(principal)
}
