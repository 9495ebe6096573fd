package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"trust-multisig/internal/config"
	"trust-multisig/internal/model"

	"github.com/gorilla/mux"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var errInvalidIndex = errors.New("index must be a non-negative integer")

type transactionRequest struct {
	Destination string  `json:"destination"`
	Value       *uint64 `json:"value"`
	Payload     []byte  `json:"payload"`
}

func (req transactionRequest) validate() error {
	var err error
	if normalize(req.Destination) == "" {
		err = multierr.Append(err, errors.New("destination is missing"))
	}
	if req.Value == nil {
		err = multierr.Append(err, errors.New("value is missing"))
	}
	return err
}

type submittedResponse struct {
	Index uint64 `json:"index"`
}

func (ser *server) getTransactions(w http.ResponseWriter, r *http.Request) {
	ser.writeJSON(w, http.StatusOK, ser.app.Transactions())
}

func (ser *server) getTransaction(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		ser.badRequest(w, r, err.Error())
		return
	}

	tx, err := ser.app.Transaction(index)
	if err != nil {
		ser.engineError(w, r, err)
		return
	}
	ser.writeJSON(w, http.StatusOK, tx)
}

func (ser *server) postTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ser.badRequest(w, r, "failed to decode the request: "+err.Error())
		return
	}
	if err := req.validate(); err != nil {
		ser.badRequest(w, r, err.Error())
		return
	}

	caller := callerOf(r)
	destination := model.Address(normalize(req.Destination))
	ser.logger.Info("submitting transaction", zap.String("destination", destination.String()), zap.Uint64("value", *req.Value), zap.String("caller", caller.String()))

	ctx, cancel := context.WithTimeout(r.Context(), config.GetRequestTimeout())
	defer cancel()

	index, err := ser.app.SubmitTransaction(ctx, caller, destination, *req.Value, req.Payload)
	if err != nil {
		ser.engineError(w, r, err)
		return
	}
	ser.writeJSON(w, http.StatusCreated, submittedResponse{Index: index})
}

func (ser *server) putConfirmation(w http.ResponseWriter, r *http.Request) {
	ser.transactionAction(w, r, ser.app.ConfirmTransaction)
}

func (ser *server) putRevocation(w http.ResponseWriter, r *http.Request) {
	ser.transactionAction(w, r, ser.app.RevokeTransaction)
}

func (ser *server) postExecution(w http.ResponseWriter, r *http.Request) {
	ser.transactionAction(w, r, ser.app.ExecuteTransaction)
}

// transactionAction responds with the updated transaction. A failed execution still
// changed the transaction; the error body carries the reason.
func (ser *server) transactionAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, caller model.Address, index uint64) error) {
	index, err := indexParam(r)
	if err != nil {
		ser.badRequest(w, r, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.GetRequestTimeout())
	defer cancel()

	if err := action(ctx, callerOf(r), index); err != nil {
		ser.engineError(w, r, err)
		return
	}

	tx, err := ser.app.Transaction(index)
	if err != nil {
		ser.engineError(w, r, err)
		return
	}
	ser.writeJSON(w, http.StatusOK, tx)
}

func indexParam(r *http.Request) (uint64, error) {
	index, err := strconv.ParseUint(normalize(mux.Vars(r)["index"]), 10, 64)
	if err != nil {
		return 0, errInvalidIndex
	}
	return index, nil
}
