package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/labels"

	"cubectl/internal/app"
	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
	"cubectl/internal/orchestrator"
	"cubectl/internal/output"
	"cubectl/internal/store"
)

func newCubeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cube",
		Aliases: []string{"cubes"},
		Short:   "List, create and drive cubes",
	}
	cmd.AddCommand(
		newCubeListCmd(),
		newCubeGetCmd(),
		newCubeCreateCmd(),
		newCubeEditCmd(),
		newCubeCommitCmd(),
		newActionCmd(orchestrator.KindCube, lifecycle.ActionDeploy, "Deploy a cube"),
		newActionCmd(orchestrator.KindCube, lifecycle.ActionRedeploy, "Redeploy a cube"),
		newActionCmd(orchestrator.KindCube, lifecycle.ActionStop, "Stop a cube"),
		newActionCmd(orchestrator.KindCube, lifecycle.ActionDelete, "Delete a cube"),
	)
	return cmd
}

// cubeLabelSet returns the labels a selector matches against: the cube's
// own "key=value" labels plus name and status.
func cubeLabelSet(c store.Cube) labels.Set {
	set := labels.Set{}
	for _, l := range c.Labels {
		k, v, _ := strings.Cut(l, "=")
		if k = strings.TrimSpace(k); k != "" {
			set[k] = strings.TrimSpace(v)
		}
	}
	set["name"] = c.Name
	set["status"] = string(c.Status)
	return set
}

// needsDetail reports whether sel looks at labels that list responses do
// not carry.
func needsDetail(sel labels.Selector) bool {
	reqs, _ := sel.Requirements()
	for _, r := range reqs {
		if k := r.Key(); k != "name" && k != "status" {
			return true
		}
	}
	return false
}

func newCubeListCmd() *cobra.Command {
	var (
		format   string
		selector string
	)
	cmd := &cobra.Command{
		Use:   "list <workspace-id>",
		Short: "List the cubes of a workspace",
		Long: `Lists the cubes of a workspace. --selector filters with label selector
syntax over the cube's labels plus the synthetic "name" and "status"
labels, for example -l status=running or -l 'service in (turplespace)'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			sel, err := labels.Parse(selector)
			if err != nil {
				return fmt.Errorf("invalid selector: %w", err)
			}
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				wsID := args[0]
				if err := s.Coordinator.Load(ctx, orchestrator.Workspace(wsID)); err != nil {
					return err
				}
				detail := needsDetail(sel)
				var matched []store.Cube
				for _, c := range s.Store.Cubes(wsID) {
					if detail {
						if c, err = s.Coordinator.RefreshCube(ctx, c.ID); err != nil {
							return err
						}
					}
					if sel.Matches(cubeLabelSet(c)) {
						matched = append(matched, c)
					}
				}
				return output.Cubes(cmd.OutOrStdout(), f, matched)
			})
		},
	}
	addOutputFlag(cmd, &format)
	cmd.Flags().StringVarP(&selector, "selector", "l", "", "Label selector to filter on")
	return cmd
}

func newCubeGetCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "get <cube-id>",
		Short: "Show the full configuration of a cube",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				if err := s.Coordinator.Load(ctx, orchestrator.Cube(args[0])); err != nil && !backend.IsNotFound(err) {
					return err
				}
				c, err := s.Coordinator.RefreshCube(ctx, args[0])
				if err != nil {
					if backend.IsNotFound(err) {
						return fmt.Errorf("cube %s not found", args[0])
					}
					return err
				}
				return output.CubeDetail(cmd.OutOrStdout(), f, c)
			})
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}

// cubeFlags are the configuration flags shared by create and edit.
type cubeFlags struct {
	name    string
	image   string
	tag     string
	ports   []string
	env     []string
	volumes []string
	cpus    string
	memory  string
}

func (f *cubeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Cube name")
	cmd.Flags().StringVar(&f.image, "image", "", "Image without tag")
	cmd.Flags().StringVar(&f.tag, "tag", "latest", "Image tag; dev images get a browser IDE")
	cmd.Flags().StringSliceVarP(&f.ports, "port", "p", nil, "Port mapping host:container (repeatable)")
	cmd.Flags().StringSliceVarP(&f.env, "env", "e", nil, "Environment variable KEY=value (repeatable)")
	cmd.Flags().StringSliceVarP(&f.volumes, "volume", "v", nil, "Volume name:/path (repeatable)")
	cmd.Flags().StringVar(&f.cpus, "cpus", "", "CPU limit, for example 0.5")
	cmd.Flags().StringVar(&f.memory, "memory", "", "Memory limit, for example 512m")
}

func parseVolumeFlags(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		name, path, ok := strings.Cut(e, ":")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("volume %q must look like name:/path", e)
		}
		out[name] = path
	}
	return out, nil
}

func newCubeCreateCmd() *cobra.Command {
	var f cubeFlags
	cmd := &cobra.Command{
		Use:   "create <workspace-id>",
		Short: "Create a stopped cube in a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.name == "" || f.image == "" {
				return fmt.Errorf("--name and --image are required")
			}
			volumes, err := parseVolumeFlags(f.volumes)
			if err != nil {
				return err
			}
			spec := backend.CubeSpec{
				Name:           f.name,
				Image:          f.image,
				Tag:            f.tag,
				Ports:          f.ports,
				EnvVars:        f.env,
				Volumes:        volumes,
				ResourceLimits: store.ResourceLimits{CPUs: f.cpus, Memory: f.memory},
			}
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				if err := s.Coordinator.Load(ctx, orchestrator.Workspace(args[0])); err != nil {
					return err
				}
				if err := s.Coordinator.CreateCube(ctx, args[0], spec); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cube %s created in workspace %s\n", f.name, args[0])
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newCubeEditCmd() *cobra.Command {
	var f cubeFlags
	cmd := &cobra.Command{
		Use:   "edit <cube-id>",
		Short: "Change the configuration of a cube",
		Long: `Replaces the fields given as flags and keeps the others. The cube's
status is not changed; redeploy it to apply the new configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				if err := s.Coordinator.Load(ctx, orchestrator.Cube(id)); err != nil {
					return err
				}
				cube, err := s.Coordinator.RefreshCube(ctx, id)
				if err != nil {
					return err
				}
				edit, err := applyCubeFlags(cmd, f, cube)
				if err != nil {
					return err
				}
				if err := s.Coordinator.EditCube(ctx, id, edit); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cube %s updated\n", edit.Name)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

// applyCubeFlags overlays the flags the user set on cube's configuration.
func applyCubeFlags(cmd *cobra.Command, f cubeFlags, cube store.Cube) (orchestrator.CubeEdit, error) {
	edit := orchestrator.EditFrom(cube)
	changed := cmd.Flags().Changed

	if changed("name") {
		edit.Name = f.name
	}
	if changed("image") || changed("tag") {
		image, tag, _ := strings.Cut(cube.Image, ":")
		if changed("image") {
			image = f.image
		}
		if changed("tag") {
			tag = f.tag
		}
		edit.Image = image
		if tag != "" {
			edit.Image += ":" + tag
		}
	}
	if changed("port") {
		edit.Ports = f.ports
	}
	if changed("env") {
		edit.EnvVars = f.env
	}
	if changed("volume") {
		volumes, err := parseVolumeFlags(f.volumes)
		if err != nil {
			return orchestrator.CubeEdit{}, err
		}
		edit.Volumes = volumes
	}
	if changed("cpus") {
		edit.ResourceLimits.CPUs = f.cpus
	}
	if changed("memory") {
		edit.ResourceLimits.Memory = f.memory
	}
	return edit, nil
}

func newCubeCommitCmd() *cobra.Command {
	var image, tag string
	cmd := &cobra.Command{
		Use:   "commit <cube-id>",
		Short: "Commit a cube's filesystem to a new image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				if err := s.Coordinator.Load(ctx, orchestrator.Cube(args[0])); err != nil {
					return err
				}
				if err := s.Coordinator.CommitCube(ctx, args[0], image, tag); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cube %s committed as %s:%s\n", args[0], image, tag)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&image, "image", "", "Target image name")
	cmd.Flags().StringVar(&tag, "tag", "", "Target image tag")
	return cmd
}
