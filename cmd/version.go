package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at build time:
//   go build -ldflags "-X 'github.com/ginjaninja78/excise-ledger/cmd.Version=1.2.0'"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// pdfModules are reported by 'version --deps'.
var pdfModules = []string{
	"github.com/ledongthuc/pdf",
	"github.com/gen2brain/go-fitz",
	"github.com/pdfcpu/pdfcpu",
}

var showDeps bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Excise Ledger Builder")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Build Date: %s\n", BuildDate)
		fmt.Printf("Go Version: %s\n", runtime.Version())

		if !showDeps {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, dep := range info.Deps {
			for _, m := range pdfModules {
				if dep.Path == m {
					fmt.Printf("  %s %s\n", dep.Path, dep.Version)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&showDeps, "deps", false, "Also list the versions of the PDF libraries")
}
