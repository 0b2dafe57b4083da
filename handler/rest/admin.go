package rest

import (
	"net/http"

	"flowpool/core"
	"flowpool/handler/param"
	"flowpool/handler/render"

	"github.com/shopspring/decimal"
)

func pauseHandler(system core.ISystemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Paused bool `json:"paused"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := system.SetPause(r.Context(), principal(r), params.Paused); err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, render.H{"paused": params.Paused})
	}
}

func addAssetHandler(registry core.IRegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			AssetID       string          `json:"asset_id"`
			Symbol        string          `json:"symbol"`
			IdleThreshold decimal.Decimal `json:"idle_threshold"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		asset, err := registry.AddAsset(r.Context(), principal(r), params.AssetID, params.Symbol, params.IdleThreshold)
		if err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, asset)
	}
}

func assetStatusHandler(registry core.IRegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			AssetID string `json:"asset_id"`
			Active  bool   `json:"active"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := registry.SetAssetStatus(r.Context(), principal(r), params.AssetID, params.Active); err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, render.H{"asset_id": params.AssetID, "active": params.Active})
	}
}

func idleThresholdHandler(registry core.IRegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			AssetID       string          `json:"asset_id"`
			IdleThreshold decimal.Decimal `json:"idle_threshold"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := registry.SetIdleThreshold(r.Context(), principal(r), params.AssetID, params.IdleThreshold); err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, render.H{"asset_id": params.AssetID, "idle_threshold": params.IdleThreshold})
	}
}

func registerProtocolHandler(registry core.IRegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			ProtocolID   string          `json:"protocol_id"`
			Name         string          `json:"name"`
			YieldRateBps int64           `json:"yield_rate_bps"`
			RiskScore    int64           `json:"risk_score"`
			MaxCapacity  decimal.Decimal `json:"max_capacity"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		protocol, err := registry.RegisterProtocol(r.Context(), principal(r),
			params.ProtocolID, params.Name, params.YieldRateBps, params.RiskScore, params.MaxCapacity)
		if err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, protocol)
	}
}

func protocolStatusHandler(registry core.IRegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			ProtocolID string `json:"protocol_id"`
			Active     bool   `json:"active"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := registry.SetProtocolStatus(r.Context(), principal(r), params.ProtocolID, params.Active); err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, render.H{"protocol_id": params.ProtocolID, "active": params.Active})
	}
}

func protocolRatesHandler(registry core.IRegistryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			ProtocolID   string `json:"protocol_id"`
			YieldRateBps int64  `json:"yield_rate_bps"`
			RiskScore    int64  `json:"risk_score"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := registry.UpdateProtocolRates(r.Context(), principal(r), params.ProtocolID, params.YieldRateBps, params.RiskScore); err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, render.H{"protocol_id": params.ProtocolID, "yield_rate_bps": params.YieldRateBps, "risk_score": params.RiskScore})
	}
}

func grantHandler(gate core.IGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Principal  string `json:"principal"`
			Capability string `json:"capability"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := gate.Grant(r.Context(), principal(r), params.Principal, core.Capability(params.Capability)); err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, render.H{"principal": params.Principal, "capability": params.Capability})
	}
}

func revokeHandler(gate core.IGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Principal  string `json:"principal"`
			Capability string `json:"capability"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if err := gate.Revoke(r.Context(), principal(r), params.Principal, core.Capability(params.Capability)); err != nil {
			opError(w, err)
			return
		}

		render.JSON(w, render.H{"principal": params.Principal, "capability": params.Capability})
	}
}
