package devbackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
)

func parseAction(raw string) (lifecycle.Action, error) {
	switch a := lifecycle.Action(raw); a {
	case lifecycle.ActionDeploy, lifecycle.ActionStop, lifecycle.ActionRedeploy:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", errNotFound, raw)
}

func pastTense(a lifecycle.Action) string {
	switch a {
	case lifecycle.ActionStop:
		return "stopped"
	case lifecycle.ActionDeploy:
		return "deployed"
	case lifecycle.ActionRedeploy:
		return "redeployed"
	case lifecycle.ActionDelete:
		return "deleted"
	}
	return string(a) + "ed"
}

func (s *Server) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.listWorkspaces())
}

func (s *Server) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var req backend.CreateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}
	if s.injected(w, "workspace/"+req.Name+"/create") {
		return
	}
	id, err := s.state.createWorkspace(req.Name, req.Desc)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logs.publish("INFO workspace %d (%s) created", id, req.Name)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Workspace created successfully", "id": id})
}

func (s *Server) workspaceAction(w http.ResponseWriter, r *http.Request) {
	action, err := parseAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, err)
		return
	}
	raw := r.URL.Query().Get("workspace_id")
	id, err := parseID(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.injected(w, fmt.Sprintf("workspace/%d/%s", id, action)) {
		return
	}
	s.delay(r.Context())
	name, err := s.state.workspaceAction(id, action)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logs.publish("INFO workspace %s %s", name, pastTense(action))
	writeMessage(w, fmt.Sprintf("Workspace %s successfully", pastTense(action)))
}

func (s *Server) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if s.injected(w, fmt.Sprintf("workspace/%d/delete", id)) {
		return
	}
	name, err := s.state.deleteWorkspace(id)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logs.publish("INFO workspace %s deleted", name)
	writeMessage(w, "Workspace deleted successfully")
}

func (s *Server) listCubes(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("workspace_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	cubes, err := s.state.listCubes(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cubes)
}

func (s *Server) getCube(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := s.state.getCube(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) createCube(w http.ResponseWriter, r *http.Request) {
	var req backend.CreateCubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}
	if s.injected(w, "cube/"+req.CubeData.Name+"/create") {
		return
	}
	wsID, err := parseID(string(req.WorkspaceID))
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := s.state.createCube(wsID, req.CubeData)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logs.publish("INFO cube %s created in workspace %d", req.CubeData.Name, wsID)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Cube created successfully", "container_id": id})
}

func (s *Server) updateCube(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req backend.UpdateCubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}
	if s.injected(w, fmt.Sprintf("cube/%d/edit", id)) {
		return
	}
	name, err := s.state.updateCube(id, req.UpdatedCube)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logs.publish("INFO cube %s updated", name)
	writeMessage(w, "Cube updated successfully")
}

func (s *Server) commitCube(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req backend.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errInvalidInput, err))
		return
	}
	if s.injected(w, fmt.Sprintf("cube/%d/commit", id)) {
		return
	}
	name, err := s.state.commitCube(id, req.Image, req.Tag)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logs.publish("INFO cube %s committed to %s:%s", name, req.Image, req.Tag)
	writeMessage(w, "Container committed successfully")
}

func (s *Server) cubeAction(w http.ResponseWriter, r *http.Request) {
	action, err := parseAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.runCubeAction(w, r, chi.URLParam(r, "id"), action)
}

func (s *Server) cubeActionByQuery(w http.ResponseWriter, r *http.Request) {
	action, err := parseAction(lastSegment(r.URL.Path))
	if err != nil {
		writeError(w, err)
		return
	}
	s.runCubeAction(w, r, r.URL.Query().Get("cube_id"), action)
}

func (s *Server) deleteCube(w http.ResponseWriter, r *http.Request) {
	s.runCubeAction(w, r, chi.URLParam(r, "id"), lifecycle.ActionDelete)
}

func (s *Server) deleteCubeByQuery(w http.ResponseWriter, r *http.Request) {
	s.runCubeAction(w, r, r.URL.Query().Get("cube_id"), lifecycle.ActionDelete)
}

func (s *Server) runCubeAction(w http.ResponseWriter, r *http.Request, rawID string, action lifecycle.Action) {
	id, err := parseID(rawID)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.injected(w, "cube/"+strconv.Itoa(id)+"/"+string(action)) {
		return
	}
	if action != lifecycle.ActionDelete {
		s.delay(r.Context())
	}
	name, err := s.state.cubeAction(id, action)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logs.publish("INFO cube %s %s", name, pastTense(action))
	writeMessage(w, fmt.Sprintf("Cube %s successfully", pastTense(action)))
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
