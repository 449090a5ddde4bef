package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/entitle"
	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
	"github.com/wippyai/entitle/rewrite"
)

var (
	inspectStrategy    string
	inspectTargets     []string
	inspectInteractive bool
)

func init() {
	inspectCmd.Flags().StringVarP(&inspectStrategy, "strategy", "s", "", "Preview the class as rewritten with this strategy")
	inspectCmd.Flags().StringSliceVarP(&inspectTargets, "target", "t", nil, "Target method pattern for the preview")
	inspectCmd.Flags().BoolVarP(&inspectInteractive, "interactive", "i", false, "Browse methods in a terminal UI")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.class> [method]",
	Short: "Print the instruction trace of class methods",
	Long: `Inspect prints one line per instruction, label, frame and table entry of each
method body. The optional method argument takes the forms "name", "name(desc)"
or "owner.name(desc)".

With --strategy the class is rewritten first and the result is printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInspect,
}

// methodInfo is one method of an inspected class.
type methodInfo struct {
	name         string
	desc         string
	trace        string
	access       uint16
	instrumented bool
}

func (m methodInfo) key() string { return m.name + m.desc }

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var r *rewrite.Rewriter
	if inspectStrategy != "" {
		r, err = overrideConfig(currentConfig(), inspectStrategy, inspectTargets).Rewriter()
		if err != nil {
			return err
		}
		out, err := r.Rewrite(data)
		if err != nil {
			return err
		}
		data = out.Bytes
	}

	if inspectInteractive {
		return runInteractive(args[0], data, r)
	}

	methods, err := loadMethods(data, r)
	if err != nil {
		return err
	}
	var key *entitle.MethodKey
	if len(args) == 2 {
		k, err := entitle.ParseMethodKey(args[1])
		if err != nil {
			return err
		}
		key = &k
	}

	cf, err := classfile.Parse(data)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	shown := 0
	for _, m := range methods {
		if key != nil && !key.Matches(cf.Name(), m.name, m.desc) {
			continue
		}
		shown++
		fmt.Fprintln(w, infoColor.Sprint(m.key()))
		if m.trace == "" {
			fmt.Fprintln(w, "  (no code)")
		} else {
			fmt.Fprint(w, m.trace)
		}
		fmt.Fprintln(w)
	}
	if shown == 0 && key != nil {
		return fmt.Errorf("no method matches %s in %s", args[1], cf.Name())
	}
	return nil
}

// loadMethods traces every method of a class. With a rewriter, each method is also
// checked for instrumentation.
func loadMethods(data []byte, r *rewrite.Rewriter) ([]methodInfo, error) {
	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, err
	}
	methods := make([]methodInfo, 0, len(cf.Methods))
	for _, m := range cf.Methods {
		trace, err := bytecode.Trace(cf, m)
		if err != nil {
			return nil, err
		}
		info := methodInfo{
			name:   m.Name,
			desc:   m.Descriptor,
			trace:  trace,
			access: m.Access,
		}
		if r != nil {
			info.instrumented, _ = r.Instrumented(data, info.key())
		}
		methods = append(methods, info)
	}
	return methods, nil
}

// filterMethods returns the methods whose key contains every space-separated term.
func filterMethods(methods []methodInfo, query string) []methodInfo {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return methods
	}
	var out []methodInfo
	for _, m := range methods {
		ok := true
		for _, t := range terms {
			if !strings.Contains(m.key(), t) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, m)
		}
	}
	return out
}
