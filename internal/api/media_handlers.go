package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hermit-crab/ffcutter/internal/cutlist"
	"github.com/hermit-crab/ffcutter/internal/export"
)

func videoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Playback.ServeHTTP(w, r)
	}
}

func videoInfoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Probe == nil {
			WriteError(w, http.StatusServiceUnavailable, "probe data not available", "NO_PROBE")
			return
		}
		WriteJSON(w, http.StatusOK, ProbeToResponse(cfg.VideoPath, cfg.Probe))
	}
}

func thumbnailHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		at, err := cutlist.ParseTime(r.URL.Query().Get("t"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid t: "+err.Error(), "BAD_REQUEST")
			return
		}

		var width, height int
		if cfg.Probe != nil && cfg.Probe.PrimaryVideo != nil {
			width = cfg.Probe.PrimaryVideo.Width
			height = cfg.Probe.PrimaryVideo.Height
		}

		thumb, err := cfg.Thumbs.Generate(cfg.VideoPath, at, width, height)
		if err != nil {
			cfg.Logger.Error("thumbnail failed", "at", at, "error", err)
			WriteError(w, http.StatusInternalServerError, "thumbnail extraction failed", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", thumb.MimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(thumb.Data)))
		w.WriteHeader(http.StatusOK)
		w.Write(thumb.Data)
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fps := 0.0
		if v := r.URL.Query().Get("fps"); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil || parsed <= 0 {
				WriteError(w, http.StatusBadRequest, "invalid fps", "BAD_REQUEST")
				return
			}
			fps = parsed
		} else if cfg.Probe != nil {
			if fd := cfg.Probe.FrameDuration(); fd > 0 {
				fps = 1 / fd
			}
		}

		segs, _, err := cutSegments(cfg)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		base := filepath.Base(cfg.VideoPath)
		title := strings.TrimSuffix(base, filepath.Ext(base))
		edl := export.GenerateEDL(segs, cfg.VideoPath, title, fps)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.SanitizeName(title, 70)+`.edl"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(edl))
	}
}

func playerStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp PlayerResponse
		if pos, ok := cfg.Player.Position(); ok {
			resp.Position = &pos
		}
		if dur, ok := cfg.Player.Duration(); ok {
			resp.Duration = &dur
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func playerSeekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Position < 0 {
			WriteError(w, http.StatusBadRequest, "position must be >= 0", "BAD_REQUEST")
			return
		}

		if err := cfg.Player.Seek(req.Position); err != nil {
			WriteError(w, http.StatusBadGateway, "player seek failed: "+err.Error(), "PLAYER_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func playerPauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Player.CyclePause(); err != nil {
			WriteError(w, http.StatusBadGateway, "player pause failed: "+err.Error(), "PLAYER_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// playerJumpHandler seeks to the next segment boundary (or the pending
// anchor) past the current playback position, backwards or forwards.
func playerJumpHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JumpRequest
		// An empty body jumps forward.
		json.NewDecoder(r.Body).Decode(&req)

		pos, ok := cfg.Player.Position()
		if !ok {
			WriteError(w, http.StatusBadRequest, "player position unknown", "BAD_REQUEST")
			return
		}

		const eps = 1e-6
		var target float64
		found := false
		for _, b := range cfg.Session.Boundaries() {
			if req.Backwards {
				if b < pos-eps && (!found || b > target) {
					target, found = b, true
				}
			} else {
				if b > pos+eps && (!found || b < target) {
					target, found = b, true
				}
			}
		}
		if !found {
			WriteError(w, http.StatusNotFound, "no boundary in that direction", "NOT_FOUND")
			return
		}

		if err := cfg.Player.Seek(target); err != nil {
			WriteError(w, http.StatusBadGateway, "player seek failed: "+err.Error(), "PLAYER_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, PlayerResponse{Position: &target})
	}
}

func playerFrameStepHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FrameStepRequest
		// An empty body steps forward.
		json.NewDecoder(r.Body).Decode(&req)

		if err := cfg.Player.FrameStep(req.Backwards); err != nil {
			WriteError(w, http.StatusBadGateway, "player frame-step failed: "+err.Error(), "PLAYER_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
