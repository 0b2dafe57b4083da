package rest

import (
	"net/http"

	"flowpool/core"
	"flowpool/handler/param"
	"flowpool/handler/render"

	"github.com/shopspring/decimal"
)

func depositHandler(ledger core.ILedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			AssetID string          `json:"asset_id"`
			UserID  string          `json:"user_id"`
			Amount  decimal.Decimal `json:"amount"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		record, err := ledger.Deposit(r.Context(), principal(r), params.AssetID, params.UserID, params.Amount)
		if err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, record)
	}
}

func withdrawHandler(ledger core.ILedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			AssetID string          `json:"asset_id"`
			UserID  string          `json:"user_id"`
			Amount  decimal.Decimal `json:"amount"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		record, err := ledger.Withdraw(r.Context(), principal(r), params.AssetID, params.UserID, params.Amount)
		if err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, record)
	}
}

func accessHandler(ledger core.ILedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			ProtocolID string          `json:"protocol_id"`
			AssetID    string          `json:"asset_id"`
			UserID     string          `json:"user_id"`
			Amount     decimal.Decimal `json:"amount"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		record, err := ledger.Access(r.Context(), principal(r), params.ProtocolID, params.AssetID, params.UserID, params.Amount)
		if err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, record)
	}
}

func returnHandler(ledger core.ILedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			ProtocolID string          `json:"protocol_id"`
			AssetID    string          `json:"asset_id"`
			UserID     string          `json:"user_id"`
			Amount     decimal.Decimal `json:"amount"`
			Yield      decimal.Decimal `json:"yield"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		record, err := ledger.Return(r.Context(), principal(r), params.ProtocolID, params.AssetID, params.UserID, params.Amount, params.Yield)
		if err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, record)
	}
}

func emergencyWithdrawHandler(ledger core.ILedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			AssetID string          `json:"asset_id"`
			To      string          `json:"to"`
			Amount  decimal.Decimal `json:"amount"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		record, err := ledger.EmergencyWithdraw(r.Context(), principal(r), params.AssetID, params.To, params.Amount)
		if err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, record)
	}
}

func rebalanceHandler(allocator core.IAllocatorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			AssetID string `json:"asset_id"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		record, err := allocator.DetectAndReallocate(r.Context(), principal(r), params.AssetID)
		if err != nil {
			opError(w, err)
			return
		}

		if record == nil {
			render.JSON(w, render.H{"rebalanced": false})
			return
		}

		render.JSON(w, record)
	}
}
