package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/domain"
	"gatepass/internal/domain/model"
	"gatepass/internal/infra/logging"
	"gatepass/internal/usecase"
)

type issuePassRequest struct {
	IssuedTo         string `json:"issued_to"`
	Purpose          string `json:"purpose"`
	ExpiryHours      int    `json:"expiry_hours"`
	ActiveDate       string `json:"active_date"` // "2006-01-02"
	ActiveTime       string `json:"active_time"` // "HH:MM"
	EndTime          string `json:"end_time"`
	AllowEarlyAccess bool   `json:"allow_early_access"`
}

type passResponse struct {
	Code             string     `json:"code"`
	IssuedTo         string     `json:"issued_to"`
	Purpose          string     `json:"purpose,omitempty"`
	IssuedAt         time.Time  `json:"issued_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ActiveDate       string     `json:"active_date,omitempty"`
	ActiveTime       string     `json:"active_time,omitempty"`
	EndTime          string     `json:"end_time,omitempty"`
	AllowEarlyAccess bool       `json:"allow_early_access,omitempty"`
	Used             bool       `json:"used"`
	UsedAt           *time.Time `json:"used_at,omitempty"`
}

func toPassResponse(p *model.Pass) passResponse {
	resp := passResponse{
		Code:             p.Code,
		IssuedTo:         p.IssuedTo,
		Purpose:          p.Purpose,
		IssuedAt:         p.IssuedAt,
		ExpiresAt:        p.ExpiresAt,
		ActiveTime:       p.ActiveTime,
		EndTime:          p.EndTime,
		AllowEarlyAccess: p.AllowEarlyAccess,
		Used:             p.Used,
		UsedAt:           p.UsedAt,
	}
	if p.ActiveDate != nil {
		resp.ActiveDate = p.ActiveDate.Format("2006-01-02")
	}
	return resp
}

type verdictResponse struct {
	Granted  bool   `json:"granted"`
	IssuedTo string `json:"issued_to,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func toVerdictResponse(v model.Verdict) verdictResponse {
	return verdictResponse{
		Granted:  v.Granted,
		IssuedTo: v.IssuedTo,
		Purpose:  v.Purpose,
		Reason:   string(v.Reason),
		Detail:   v.Detail,
	}
}

func (s *Server) handleIssuePass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issuePassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ucReq := usecase.IssueRequest{
		IssuedTo:    req.IssuedTo,
		Purpose:     req.Purpose,
		ExpiryHours: req.ExpiryHours,
	}
	if req.ActiveDate != "" {
		day, err := time.Parse("2006-01-02", req.ActiveDate)
		if err != nil {
			http.Error(w, "Invalid active_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		ucReq.Schedule = &model.Schedule{
			ActiveDate:       day,
			ActiveTime:       req.ActiveTime,
			EndTime:          req.EndTime,
			AllowEarlyAccess: req.AllowEarlyAccess,
		}
	} else if req.ActiveTime != "" || req.EndTime != "" {
		http.Error(w, "active_time/end_time require active_date", http.StatusBadRequest)
		return
	}

	pass, err := s.passUC.Issue(ctx, ucReq)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error().Err(err).Msg("issue pass failed")
		http.Error(w, "Failed to issue pass", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toPassResponse(pass))
}

func (s *Server) handleGetPass(w http.ResponseWriter, r *http.Request) {
	pass, err := s.passUC.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Pass not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load pass", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toPassResponse(pass))
}

func (s *Server) handlePassImage(w http.ResponseWriter, r *http.Request) {
	scannable := r.URL.Query().Get("variant") != "print"
	img, err := s.passUC.RenderImage(r.Context(), chi.URLParam(r, "code"), scannable)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Pass not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrEncodingFailed):
			http.Error(w, "Encoder unavailable", http.StatusBadGateway)
		default:
			http.Error(w, "Failed to render image", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (s *Server) handlePassEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.passUC.History(r.Context(), chi.URLParam(r, "code"), 50)
	if err != nil {
		http.Error(w, "Failed to load events", http.StatusInternalServerError)
		return
	}

	type eventResponse struct {
		ID        string    `json:"id"`
		ScannerID *string   `json:"scanner_id,omitempty"`
		Granted   bool      `json:"granted"`
		Reason    string    `json:"reason,omitempty"`
		At        time.Time `json:"at"`
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:        e.ID,
			ScannerID: e.ScannerID,
			Granted:   e.Granted,
			Reason:    string(e.Reason),
			At:        e.At,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type redeemRequest struct {
	Code string `json:"code"`
}

// handleRedeem adjudicates a scanner-submitted code. A denial is a valid
// outcome, not an HTTP error: the verdict always goes back with 200.
func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	verdict := s.redeemUC.Redeem(r.Context(), req.Code, s.now(), scannerIDFrom(r.Context()))
	logging.With(r.Context(), s.log).Info().
		Str("code", logging.Redact(req.Code, s.dev)).
		Bool("granted", verdict.Granted).
		Msg("redeem request")
	writeJSON(w, http.StatusOK, toVerdictResponse(verdict))
}

type scannerTokenRequest struct {
	ScannerID string `json:"scanner_id"`
	TTLHours  int    `json:"ttl_hours"`
}

func (s *Server) handleScannerToken(w http.ResponseWriter, r *http.Request) {
	var req scannerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ScannerID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TTLHours <= 0 {
		req.TTLHours = 24
	}

	token, err := s.mintScannerToken(req.ScannerID, time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		s.log.Error().Err(err).Msg("scanner token signing failed")
		http.Error(w, "Failed to mint token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleScanPage serves the guest scan link. The redemption happens on GET:
// clicking the link in a pass email or scanning the printed code is the
// redemption attempt itself.
func (s *Server) handleScanPage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	verdict := s.redeemUC.Redeem(r.Context(), code, s.now(), nil)
	logging.With(r.Context(), s.log).Info().
		Str("code", logging.Redact(code, s.dev)).
		Bool("granted", verdict.Granted).
		Msg("scan link redeemed")

	status := http.StatusOK
	if !verdict.Granted {
		status = http.StatusForbidden
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = scanPage.Execute(w, struct {
		OK       bool
		IssuedTo string
		Detail   string
	}{
		OK:       verdict.Granted,
		IssuedTo: verdict.IssuedTo,
		Detail:   verdict.Detail,
	})
}

var scanPage = template.Must(template.New("scan").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>{{if .OK}}Access Granted{{else}}Access Denied{{end}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
.small{font-size:12px;color:#666}
</style>
</head>
<body>
<div class="card">
  {{if .OK}}
    <h2 class="ok">&#10003; Access Granted</h2>
    <p>Welcome, {{.IssuedTo}}.</p>
    <div class="small">This pass is now used and cannot be scanned again.</div>
  {{else}}
    <h2 class="fail">&#10007; Access Denied</h2>
    <p>{{.Detail}}</p>
  {{end}}
</div>
</body>
</html>`))

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
