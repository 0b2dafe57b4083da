package rest

import (
	"net/http"

	"flowpool/core"
	"flowpool/handler/param"
	"flowpool/handler/render"
	"flowpool/handler/views"
	"flowpool/internal/flowpool"
)

func allAssetsHandler(assetStr core.IAssetStore, balanceStr core.IBalanceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets, err := assetStr.All(r.Context())
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		assetViews := make([]*views.Asset, 0, len(assets))
		for _, a := range assets {
			assetViews = append(assetViews, views.NewAsset(a))
		}

		render.JSON(w, assetViews)
	}
}

func balancesHandler(assetStr core.IAssetStore, balanceStr core.IBalanceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			UserID string `json:"user_id"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if params.UserID == "" {
			opError(w, core.ErrInvalidPrincipal)
			return
		}

		balances, err := balanceStr.FindByUser(r.Context(), params.UserID)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		balanceViews := make([]*views.Balance, 0, len(balances))
		for _, b := range balances {
			asset, err := assetStr.Find(r.Context(), b.AssetID)
			if err != nil {
				render.BadRequest(w, err)
				return
			}
			balanceViews = append(balanceViews, views.NewBalance(b, asset))
		}

		render.JSON(w, balanceViews)
	}
}

func allProtocolsHandler(protocolStr core.IProtocolStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		protocols, err := protocolStr.All(r.Context())
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		protocolViews := make([]*views.Protocol, 0, len(protocols))
		for _, p := range protocols {
			protocolViews = append(protocolViews, &views.Protocol{
				Protocol: *p,
				Score:    flowpool.RiskAdjustedScore(p.YieldRateBps, p.RiskScore),
			})
		}

		render.JSON(w, protocolViews)
	}
}

func allocationsHandler(allocationStr core.IAllocationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			AssetID    string `json:"asset_id"`
			ProtocolID string `json:"protocol_id"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		var (
			allocations []*core.Allocation
			err         error
		)
		switch {
		case params.AssetID != "":
			allocations, err = allocationStr.FindByAsset(r.Context(), params.AssetID)
		case params.ProtocolID != "":
			allocations, err = allocationStr.FindByProtocol(r.Context(), params.ProtocolID)
		default:
			opError(w, core.ErrAssetNotFound)
			return
		}
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, allocations)
	}
}

func recordsHandler(recordStr core.IRecordStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			AssetID string `json:"asset_id"`
			Limit   int    `json:"limit"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if params.Limit <= 0 || params.Limit > 500 {
			params.Limit = 100
		}

		records, err := recordStr.List(r.Context(), params.AssetID, params.Limit)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, records)
	}
}

func treasuryHandler(treasuryStr core.ITreasuryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Account string `json:"account"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if params.Account == "" {
			params.Account = core.TreasuryAccount
		}

		treasuries, err := treasuryStr.FindByAccount(r.Context(), params.Account)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, treasuries)
	}
}

func systemHandler(system core.ISystemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paused, err := system.Paused(r.Context())
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, render.H{
			"version": core.SysVersion,
			"paused":  paused,
		})
	}
}
