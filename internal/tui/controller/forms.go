package controller

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
	"cubectl/internal/orchestrator"
	"cubectl/internal/session"
	"cubectl/internal/store"
	"cubectl/internal/tui/model"
)

// Field order of the cube forms.
const (
	cubeFieldName = iota
	cubeFieldImage
	cubeFieldTag
	cubeFieldPorts
	cubeFieldEnv
	cubeFieldVolumes
	cubeFieldCPUs
	cubeFieldMemory
)

func openForm(m *model.Model, f *model.Form) {
	m.Form = f
	m.LastAppMode = m.CurrentAppMode
	m.CurrentAppMode = model.ModeForm
}

func closeForm(m *model.Model) {
	m.Form = nil
	m.CurrentAppMode = model.ModeDashboard
}

func openCreateForm(m *model.Model) {
	if m.Page == session.PageWorkspaceDashboard {
		openForm(m, model.NewForm(model.FormCreateWorkspace, "New workspace", "",
			model.FormField{Label: "Name", Placeholder: "my-workspace"},
			model.FormField{Label: "Description", Placeholder: "optional"},
		))
		return
	}
	if m.SelectedWorkspaceID == "" {
		return
	}
	openForm(m, model.NewForm(model.FormCreateCube, "New cube", m.SelectedWorkspaceID,
		model.FormField{Label: "Name", Placeholder: "web"},
		model.FormField{Label: "Image", Placeholder: "nginx"},
		model.FormField{Label: "Tag", Placeholder: "latest", Value: "latest"},
		model.FormField{Label: "Ports", Placeholder: "8080:80, 8443:443"},
		model.FormField{Label: "Env", Placeholder: "KEY=value, OTHER=1"},
		model.FormField{Label: "Volumes", Placeholder: "name:/path"},
		model.FormField{Label: "CPUs", Placeholder: "1.0"},
		model.FormField{Label: "Memory", Placeholder: "512m"},
	))
}

func openEditForm(m *model.Model) {
	if m.Page == session.PageWorkspaceDashboard {
		return
	}
	c, ok := m.CubeUnderCursor()
	if !ok {
		return
	}
	image, tag, _ := strings.Cut(c.Image, ":")
	openForm(m, model.NewForm(model.FormEditCube, "Edit "+c.Name, c.ID,
		model.FormField{Label: "Name", Value: c.Name},
		model.FormField{Label: "Image", Value: image},
		model.FormField{Label: "Tag", Value: tag},
		model.FormField{Label: "Ports", Value: strings.Join(c.Ports, ", ")},
		model.FormField{Label: "Env", Value: strings.Join(c.EnvVars, ", ")},
		model.FormField{Label: "Volumes", Value: formatVolumes(c.Volumes)},
		model.FormField{Label: "CPUs", Value: c.ResourceLimits.CPUs},
		model.FormField{Label: "Memory", Value: c.ResourceLimits.Memory},
	))
}

func openCommitForm(m *model.Model) {
	if m.Page == session.PageWorkspaceDashboard {
		return
	}
	c, ok := m.CubeUnderCursor()
	if !ok {
		return
	}
	image, _, _ := strings.Cut(c.Image, ":")
	openForm(m, model.NewForm(model.FormCommitCube, "Commit "+c.Name, c.ID,
		model.FormField{Label: "Image", Placeholder: "registry/name", Value: image},
		model.FormField{Label: "Tag", Placeholder: "v1"},
	))
}

func handleFormKey(m *model.Model, msg tea.KeyMsg) (*model.Model, tea.Cmd) {
	f := m.Form
	if f == nil {
		m.CurrentAppMode = model.ModeDashboard
		return m, nil
	}
	switch msg.String() {
	case "esc":
		closeForm(m)
		return m, nil
	case "tab", "down":
		f.Next()
		return m, nil
	case "shift+tab", "up":
		f.Prev()
		return m, nil
	case "enter":
		if f.Focus < len(f.Inputs)-1 {
			f.Next()
			return m, nil
		}
		return m, submitForm(m, f)
	}
	return m, f.Update(msg)
}

// submitForm validates f and starts the backend call. Invalid input keeps
// the form open with an error line.
func submitForm(m *model.Model, f *model.Form) tea.Cmd {
	c := m.Coordinator
	ctx := m.Ctx

	switch f.Kind {
	case model.FormCreateWorkspace:
		name, desc := f.Value(0), f.Value(1)
		if name == "" {
			f.Err = "name is required"
			return nil
		}
		closeForm(m)
		m.Pending++
		return model.RunCmd(orchestrator.Workspace(name), lifecycle.ActionCreate, func() error {
			return c.CreateWorkspace(ctx, name, desc)
		})

	case model.FormCreateCube:
		spec, err := cubeSpecFromForm(f)
		if err != nil {
			f.Err = err.Error()
			return nil
		}
		wsID := f.TargetID
		closeForm(m)
		m.Pending++
		return model.RunCmd(orchestrator.Workspace(wsID), lifecycle.ActionCreate, func() error {
			return c.CreateCube(ctx, wsID, spec)
		})

	case model.FormEditCube:
		cube, ok := m.Store.Cube(f.TargetID)
		if !ok {
			closeForm(m)
			return m.SetStatusMessage("cube no longer exists", model.StatusBarWarning, model.StatusMessageTTL)
		}
		edit, err := cubeEditFromForm(f, cube)
		if err != nil {
			f.Err = err.Error()
			return nil
		}
		id := f.TargetID
		closeForm(m)
		m.Pending++
		return model.RunCmd(orchestrator.Cube(id), lifecycle.ActionEdit, func() error {
			return c.EditCube(ctx, id, edit)
		})

	case model.FormCommitCube:
		image, tag := f.Value(0), f.Value(1)
		if image == "" || tag == "" {
			f.Err = "image and tag are required"
			return nil
		}
		id := f.TargetID
		closeForm(m)
		m.Pending++
		return model.RunCmd(orchestrator.Cube(id), lifecycle.ActionCommit, func() error {
			return c.CommitCube(ctx, id, image, tag)
		})
	}
	closeForm(m)
	return nil
}

func cubeSpecFromForm(f *model.Form) (backend.CubeSpec, error) {
	spec := backend.CubeSpec{
		Name:    f.Value(cubeFieldName),
		Image:   f.Value(cubeFieldImage),
		Tag:     f.Value(cubeFieldTag),
		Ports:   f.List(cubeFieldPorts),
		EnvVars: f.List(cubeFieldEnv),
		ResourceLimits: store.ResourceLimits{
			CPUs:   f.Value(cubeFieldCPUs),
			Memory: f.Value(cubeFieldMemory),
		},
	}
	if spec.Name == "" || spec.Image == "" {
		return backend.CubeSpec{}, fmt.Errorf("name and image are required")
	}
	volumes, err := parseVolumes(f.List(cubeFieldVolumes))
	if err != nil {
		return backend.CubeSpec{}, err
	}
	spec.Volumes = volumes
	return spec, nil
}

func cubeEditFromForm(f *model.Form, cube store.Cube) (orchestrator.CubeEdit, error) {
	edit := orchestrator.EditFrom(cube)
	edit.Name = f.Value(cubeFieldName)
	image := f.Value(cubeFieldImage)
	if edit.Name == "" || image == "" {
		return orchestrator.CubeEdit{}, fmt.Errorf("name and image are required")
	}
	if tag := f.Value(cubeFieldTag); tag != "" {
		image += ":" + tag
	}
	edit.Image = image
	edit.Ports = f.List(cubeFieldPorts)
	edit.EnvVars = f.List(cubeFieldEnv)
	volumes, err := parseVolumes(f.List(cubeFieldVolumes))
	if err != nil {
		return orchestrator.CubeEdit{}, err
	}
	edit.Volumes = volumes
	edit.ResourceLimits.CPUs = f.Value(cubeFieldCPUs)
	edit.ResourceLimits.Memory = f.Value(cubeFieldMemory)
	return edit, nil
}

// parseVolumes turns "name:/path" entries into a volume map.
func parseVolumes(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		name, path, ok := strings.Cut(e, ":")
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("volume %q must look like name:/path", e)
		}
		out[name] = path
	}
	return out, nil
}

func formatVolumes(v map[string]string) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+v[k])
	}
	return strings.Join(parts, ", ")
}
