package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/entitle/linkage"
)

var (
	linkCaller    string
	linkClasspath []string
)

func init() {
	linkCmd.Flags().StringVar(&linkCaller, "caller", "", "Run each resolved check on behalf of this caller class")
	linkCmd.Flags().StringSliceVar(&linkClasspath, "classpath", nil, "Extra classes or directories for the type hierarchy")
	rootCmd.AddCommand(linkCmd)
}

var linkCmd = &cobra.Command{
	Use:   "link <class-or-dir>...",
	Short: "Resolve the entitlement call sites left by the inheritance strategy",
	Long: `Link finds every call site the inheritance strategy inserted, builds the type
hierarchy from the given classes and the classpath, and resolves each site to the
real check or to a no-op.

With --caller, each resolved site is invoked through the configured policy and
denials are reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLink,
}

func runLink(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()
	files, err := collectClasses(args)
	if err != nil {
		return err
	}
	extra, err := collectClasses(linkClasspath)
	if err != nil {
		return err
	}

	hierarchy := linkage.NewStaticHierarchy()
	classes := make(map[string][]byte, len(files))
	for _, f := range append(files, extra...) {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return err
		}
		if err := hierarchy.AddClass(data); err != nil {
			return fmt.Errorf("%s: %w", f.path, err)
		}
		classes[f.path] = data
	}

	linker := linkage.NewLinker(linkage.Options{
		Hierarchy: hierarchy,
		Checker:   cfg.PolicyChecker(),
	})
	bootstrap := cfg.RuntimeClasses().Bootstrap()

	w := cmd.OutOrStdout()
	var denied int
	for _, f := range files {
		sites, err := linkage.Discover(classes[f.path], bootstrap)
		if err != nil {
			return fmt.Errorf("%s: %w", f.path, err)
		}
		for _, site := range sites {
			target := linker.Link(site)
			if target.Noop {
				status(w, skipColor, "noop", site.Key.String(), "")
			} else {
				status(w, okColor, "check", site.Key.String(), target.Handle.Owner+"."+target.Handle.Name)
			}
			if linkCaller == "" {
				continue
			}
			if err := linker.Invoke(site, linkCaller); err != nil {
				denied++
				status(w, failColor, "denied", site.Key.String(), err.Error())
			}
		}
	}

	stats := linker.Stats()
	fmt.Fprintf(w, "\n%d sites, %d resolutions\n", stats.Sites, stats.Resolutions)
	if denied > 0 {
		return fmt.Errorf("%s was denied at %d sites", linkCaller, denied)
	}
	return nil
}
