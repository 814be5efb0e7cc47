package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "데이터 소스 목록",
	Long: `등록된 데이터 소스와 별칭을 출력합니다.

Example:
  go run ./cmd/marketpipe sources
  go run ./cmd/marketpipe sources --fixture testdata/prices.json`,
	RunE: listSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func listSources(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("Registered sources:")
	for _, info := range a.registry.List() {
		line := fmt.Sprintf("  - %-14s", info.ID)
		if info.AliasOf != "" {
			line += " → " + info.AliasOf
		}
		if info.RequiresAPIKey {
			line += " [api key]"
		}
		if info.Authoritative {
			line += " [authoritative]"
		}
		fmt.Println(line)
	}

	return nil
}
