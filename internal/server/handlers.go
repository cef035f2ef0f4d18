package server

import (
	"net/http"

	"github.com/jonathan/figure-planner/internal/figures"
	"github.com/jonathan/figure-planner/internal/types"
	"github.com/jonathan/figure-planner/internal/uploads"
)

// ListFiguresResponse is the body of GET /figures.
type ListFiguresResponse struct {
	Figures []*types.Figure `json:"figures"`
}

// GenerateRequest is the body of POST /figures/generate. When Create is set
// the accepted proposal is stored immediately.
type GenerateRequest struct {
	types.Intent
	Create    bool               `json:"create,omitempty"`
	Overrides *figures.Overrides `json:"overrides,omitempty"`
}

// GenerateResponse is the body of POST /figures/generate.
type GenerateResponse struct {
	Proposal *types.Proposal `json:"proposal"`
	Figure   *types.Figure   `json:"figure,omitempty"`
}

func (s *Server) handleListFigures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.manager.ListFigures(r.Context(), figures.Filter{
		Status: types.Status(q.Get("status")),
		Query:  q.Get("q"),
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ListFiguresResponse{Figures: list})
}

func (s *Server) handleCreateFigure(w http.ResponseWriter, r *http.Request) {
	var input types.NewFigureInput
	if err := decodeJSON(w, r, &input); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	fig, err := s.manager.CreateFigure(r.Context(), &input)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, fig)
}

func (s *Server) handleUpdateFigure(w http.ResponseWriter, r *http.Request) {
	var changes types.FigureChanges
	if err := decodeJSON(w, r, &changes); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	fig, err := s.manager.UpdateFigure(r.Context(), r.PathValue("id"), &changes)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, fig)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	p, err := s.manager.GenerateProposal(r.Context(), req.Intent)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if !req.Create {
		s.jsonResponse(w, http.StatusOK, GenerateResponse{Proposal: p})
		return
	}

	fig, err := s.manager.CreateFromProposal(r.Context(), p, req.Overrides)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, GenerateResponse{Proposal: p, Figure: fig})
}

func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		s.errorResponse(w, r, errUploadsDisabled)
		return
	}

	var req uploads.Request
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	up, err := s.uploads.Presign(r.Context(), &req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, up)
}
