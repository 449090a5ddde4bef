package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/wippyai/entitle/internal/watch"
)

var (
	okColor   = color.New(color.FgGreen)
	skipColor = color.New(color.Faint)
	failColor = color.New(color.FgRed, color.Bold)
	infoColor = color.New(color.FgCyan)
)

func disableColor() {
	color.NoColor = true
}

// status writes one aligned "<tag> <path> <detail>" line.
func status(w io.Writer, c *color.Color, tag, path, detail string) {
	fmt.Fprintf(w, "%s %s", c.Sprintf("%-10s", tag), path)
	if detail != "" {
		fmt.Fprintf(w, "  %s", detail)
	}
	fmt.Fprintln(w)
}

// classFile is an input class and its path relative to the argument it came from.
type classFile struct {
	path string
	rel  string
}

// collectClasses expands directory arguments into the class files below them.
func collectClasses(args []string) ([]classFile, error) {
	var files []classFile
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, classFile{path: arg, rel: filepath.Base(arg)})
			continue
		}
		root := arg
		err = watch.ScanExisting(root, func(path string) error {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, classFile{path: path, rel: rel})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
