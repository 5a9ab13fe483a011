package api

import (
	"encoding/json"
	"net/http"

	"github.com/hermit-crab/ffcutter/internal/catalog"
	"github.com/hermit-crab/ffcutter/internal/cutlist"
	"github.com/hermit-crab/ffcutter/internal/session"
)

// The session endpoints operate on the save-file shape directly, so a
// client sees exactly what would land on disk.

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

func putSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := session.Default()
		if err := json.NewDecoder(r.Body).Decode(next); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.Replace(next); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

// anchorPosition reads the position from the request body, falling back
// to where the player currently is.
func anchorPosition(cfg ServerConfig, r *http.Request) (float64, bool) {
	var req AnchorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Position != nil {
		return *req.Position, true
	}
	return cfg.Player.Position()
}

func putAnchorHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pos, ok := anchorPosition(cfg, r)
		if !ok {
			WriteError(w, http.StatusBadRequest, "no position given and player position unknown", "BAD_REQUEST")
			return
		}
		if pos < 0 {
			WriteError(w, http.StatusBadRequest, "position must be >= 0", "BAD_REQUEST")
			return
		}

		move, err := cfg.Session.PutAnchor(pos)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		cfg.Player.ShowText(move.String()+" "+cutlist.FormatTime(pos, false), 1200)

		snap := cfg.Session.Snapshot()
		WriteJSON(w, http.StatusOK, AnchorResponse{
			Move:     move.String(),
			Anchor:   snap.Anchor,
			Segments: len(snap.Segments),
		})
	}
}

func deleteAnchorHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pos, ok := anchorPosition(cfg, r)
		if !ok {
			WriteError(w, http.StatusBadRequest, "no position given and player position unknown", "BAD_REQUEST")
			return
		}

		deleted, err := cfg.Session.DeleteAnchor(pos)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if !deleted {
			WriteError(w, http.StatusNotFound, "no anchor or boundary to delete", "NOT_FOUND")
			return
		}
		cfg.Player.ShowText("deleted "+cutlist.FormatTime(pos, false), 1200)

		snap := cfg.Session.Snapshot()
		WriteJSON(w, http.StatusOK, AnchorResponse{
			Deleted:  true,
			Anchor:   snap.Anchor,
			Segments: len(snap.Segments),
		})
	}
}

func setModeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.SetMode(cutlist.Mode(req.Mode)); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

func commandsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, _, err := buildCommands(cfg)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, CommandsResponse{
			Commands: cs.Commands,
			Preview:  cs.Preview(),
			OutFile:  cs.OutFile,
		})
	}
}

func cutHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segs, snap, err := cutSegments(cfg)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		job, err := cfg.CatalogService.EnqueueCut(r.Context(), cfg.Video.ID, &catalog.CutPayload{
			Segments: segs,
			Encode:   snap.Encode,
			TwoPass:  snap.TwoPass,
			FFArgs:   snap.FFArgs,
		})
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusAccepted, CutResponse{JobID: job.ID})
	}
}
