package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Figu3/trevee-supply-api/constant"
	"github.com/Figu3/trevee-supply-api/utils"
)

// CacheStatusHeader carries the freshness tier of the served value.
const CacheStatusHeader = "X-Cache-Status"

// handleCirculatingSupply handles GET /circulating-supply. The body is the
// bare decimal number so supply trackers can consume it directly.
func (s *Server) handleCirculatingSupply(w http.ResponseWriter, r *http.Request) {
	value, status := s.supply.GetCirculatingSupply(r.Context())
	writeText(w, string(status), value)
}

// handleTotalSupply handles GET /total-supply
func (s *Server) handleTotalSupply(w http.ResponseWriter, r *http.Request) {
	value, status := s.supply.GetTotalSupply(r.Context())
	writeText(w, string(status), value)
}

// handleSupplyDetails handles GET /supply-details
func (s *Server) handleSupplyDetails(w http.ResponseWriter, r *http.Request) {
	breakdown, status := s.supply.GetDetailedBreakdown(r.Context())
	w.Header().Set(CacheStatusHeader, string(status))
	writeJSON(w, http.StatusOK, SupplyDetailsResponse{
		Breakdown:   breakdown,
		CacheStatus: string(status),
	})
}

// handleCacheClear handles POST /api/v1/cache/clear
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.supply.Clear()
	s.logger.Info().Str("remote_addr", r.RemoteAddr).Msg("cache cleared via API")
	writeJSON(w, http.StatusOK, MessageResponse{Message: "cache cleared"})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	lastUpdated := s.supply.LastUpdated()
	cacheHealth := CacheHealth{
		Populated:   !lastUpdated.IsZero(),
		LastUpdated: lastUpdated,
	}
	if cacheHealth.Populated {
		cacheHealth.Age = utils.FormatDuration(time.Since(lastUpdated))
	}

	chains := make([]ChainHealth, 0, len(s.chains))
	for _, chain := range s.chains {
		chains = append(chains, ChainHealth{
			Name:         chain.Name(),
			HealthStatus: chain.HealthStatus(),
		})
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: constant.Version,
		Cache:   cacheHealth,
		Chains:  chains,
	})
}

func writeText(w http.ResponseWriter, status, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(CacheStatusHeader, status)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
