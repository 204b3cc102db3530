package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mitodl/lmod-proxy/internal/cli/output"
	"github.com/mitodl/lmod-proxy/pkg/proxyclient"
)

var membershipSection string

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the sections of a gradebook",
	Long: `List the sections of a remote gradebook.

Examples:
  lmod-proxyctl sections --gradebook STELLAR:/project/mitxdemosite --user staff@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGradebook(); err != nil {
			return err
		}
		client, err := getClient()
		if err != nil {
			return err
		}
		resp, err := client.GetSections(cmd.Context(), flags.gradebook, flags.user)
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var assignmentsCmd = &cobra.Command{
	Use:   "assignments",
	Short: "List the assignments of a gradebook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGradebook(); err != nil {
			return err
		}
		client, err := getClient()
		if err != nil {
			return err
		}
		resp, err := client.GetAssignments(cmd.Context(), flags.gradebook, flags.user)
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var membershipCmd = &cobra.Command{
	Use:   "membership",
	Short: "List the students of a gradebook",
	Long: `List the students of a remote gradebook, optionally restricted to
one section.

Examples:
  lmod-proxyctl membership --gradebook STELLAR:/project/mitxdemosite --user staff@example.com
  lmod-proxyctl membership --gradebook STELLAR:/project/mitxdemosite --user staff@example.com --section "Section 1"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGradebook(); err != nil {
			return err
		}
		client, err := getClient()
		if err != nil {
			return err
		}
		resp, err := client.GetMembership(cmd.Context(), flags.gradebook, flags.user, membershipSection)
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var gradesCmd = &cobra.Command{
	Use:   "grades <csv-file>",
	Short: "Upload a grade spreadsheet",
	Long: `Upload a CSV grade spreadsheet to a remote gradebook.

Examples:
  lmod-proxyctl grades grades.csv --gradebook STELLAR:/project/mitxdemosite --user staff@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireGradebook(); err != nil {
			return err
		}
		datafile, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read grade file: %w", err)
		}
		client, err := getClient()
		if err != nil {
			return err
		}
		resp, err := client.PostGrades(cmd.Context(), flags.gradebook, flags.user, datafile)
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

func init() {
	membershipCmd.Flags().StringVar(&membershipSection, "section", "", "Restrict to one section")
}

// printResponse renders the proxy message and tabulates the data rows.
func printResponse(resp *proxyclient.Response) error {
	fmt.Println(resp.Msg)

	if len(resp.Data) == 0 {
		return nil
	}

	// Map rows become columns keyed by the first row's fields; anything
	// else is printed as a single value column.
	first, ok := resp.Data[0].(map[string]any)
	if !ok {
		table := output.NewTableData("VALUE")
		for _, row := range resp.Data {
			table.AddRow(fmt.Sprint(row))
		}
		return output.PrintTable(os.Stdout, table)
	}

	headers := make([]string, 0, len(first))
	for key := range first {
		headers = append(headers, key)
	}
	sort.Strings(headers)

	table := output.NewTableData(headers...)
	for _, row := range resp.Data {
		fields, ok := row.(map[string]any)
		if !ok {
			continue
		}
		values := make([]string, len(headers))
		for i, header := range headers {
			values[i] = fmt.Sprint(fields[header])
		}
		table.AddRow(values...)
	}
	return output.PrintTable(os.Stdout, table)
}
