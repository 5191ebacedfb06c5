package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/kwertop/algokit"
	"github.com/kwertop/algokit/service"
)

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps err onto a status: invalid input is 400, an oversized
// body 413, anything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, route string, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
			Message: fmt.Sprintf("request body too large (max %d bytes)", s.maxUpload),
		})
	case algokit.IsInvalidInput(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid request", Error: err.Error()})
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "route", route, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal error (" + route + ")", Error: err.Error()})
	}
}

// decode reads a JSON body into v. Malformed bodies are invalid input.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || algokit.IsInvalidInput(err) {
			return err
		}
		return algokit.InvalidInput("body", "malformed JSON: %v", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "service online"})
}

type routeInfo struct {
	Rule     string   `json:"rule"`
	Methods  []string `json:"methods"`
	Endpoint string   `json:"endpoint"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	routes := make([]routeInfo, 0, len(s.routes)+1)
	for _, rt := range s.routes {
		routes = append(routes, routeInfo{
			Rule:     strings.TrimSuffix(rt.path, "{$}"),
			Methods:  []string{rt.method},
			Endpoint: rt.name,
		})
	}
	routes = append(routes, routeInfo{Rule: "/metrics", Methods: []string{http.MethodGet}, Endpoint: "metrics"})
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "algokit server online",
		"routes":  routes,
	})
}

func (s *Server) handlePingRedis(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Message: "redis is not configured"})
		return
	}
	now, err := algokit.PingRedis(r.Context(), s.redis)
	if err != nil {
		s.writeError(w, r, "ping_redis", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redis_time": now.UTC().Format("2006-01-02 15:04:05.000000Z07:00")})
}

func (s *Server) handlePathfinding(w http.ResponseWriter, r *http.Request) {
	var req service.PathRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, "pathfinding", err)
		return
	}
	resp, err := s.svc.FindPath(r.Context(), req)
	if err != nil {
		s.writeError(w, r, "pathfinding", err)
		return
	}
	s.metrics.explored.WithLabelValues(resp.Algorithm).Observe(float64(resp.Explored))
	msg := "path found"
	if !resp.Found() {
		msg = "no path exists on this grid"
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		service.PathResponse
	}{msg, resp})
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	var req service.CycleRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, "guilds_cycle", err)
		return
	}
	resp, err := s.svc.DetectCycle(r.Context(), req)
	if err != nil {
		s.writeError(w, r, "guilds_cycle", err)
		return
	}
	msg := "no cycle detected"
	if resp.HasCycle {
		msg = "cycle detected"
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		service.CycleResponse
	}{msg, resp})
}

func (s *Server) handleReservoir(w http.ResponseWriter, r *http.Request) {
	var req service.ReservoirRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, "reservoir", err)
		return
	}
	resp, err := s.svc.Reservoir(r.Context(), req)
	if err != nil {
		s.writeError(w, r, "reservoir", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		service.ReservoirResponse
	}{"sample drawn", resp})
}

func (s *Server) handleSketch(w http.ResponseWriter, r *http.Request) {
	var req service.SketchRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, "cms", err)
		return
	}
	resp, err := s.svc.EstimateCounts(r.Context(), req)
	if err != nil {
		s.writeError(w, r, "cms", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		service.SketchResponse
	}{"estimates computed", resp})
}

type digestBody struct {
	Message string `json:"message"`
	service.DigestResponse
}

// handleDigest hashes either a JSON {"text", "salt"} body or a multipart
// upload with a "file" part and an optional "salt" field.
func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req service.DigestRequest
		if err := s.decode(w, r, &req); err != nil {
			s.writeError(w, r, "sha256", err)
			return
		}
		resp, err := s.svc.Digest(r.Context(), req)
		if err != nil {
			s.writeError(w, r, "sha256", err)
			return
		}
		writeJSON(w, http.StatusOK, digestBody{"digest computed (text)", resp})
		return
	}

	if r.ContentLength > s.maxUpload {
		s.writeError(w, r, "sha256", &http.MaxBytesError{Limit: s.maxUpload})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = algokit.InvalidInput("file", "malformed multipart body: %v", err)
		}
		s.writeError(w, r, "sha256", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, "sha256", algokit.InvalidInput("file", "field is required"))
		return
	}
	defer file.Close()

	resp, err := s.svc.DigestStream(r.Context(), file, r.FormValue("salt"))
	if err != nil {
		s.writeError(w, r, "sha256", err)
		return
	}
	writeJSON(w, http.StatusOK, digestBody{"digest computed (file)", resp})
}

func (s *Server) handleBloomAdd(w http.ResponseWriter, r *http.Request) {
	var req service.BloomAddRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, "bloom_add", err)
		return
	}
	resp, err := s.svc.BloomAdd(r.Context(), req)
	if err != nil {
		s.writeError(w, r, "bloom_add", err)
		return
	}
	s.metrics.bloomAdds.Add(float64(len(resp.Added)))
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		service.BloomAddResponse
	}{"items added to the bloom filter", resp})
}

func (s *Server) handleBloomCheck(w http.ResponseWriter, r *http.Request) {
	var req service.BloomCheckRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, "bloom_check", err)
		return
	}
	resp, err := s.svc.BloomCheck(r.Context(), req)
	if err != nil {
		s.writeError(w, r, "bloom_check", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		service.BloomCheckResponse
	}{"membership checked (probable presence)", resp})
}
