package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/frahmantamala/employee-records/internal/client"
	"github.com/frahmantamala/employee-records/internal/employee"
	"github.com/frahmantamala/employee-records/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	apiURL       string
	outputJSON   bool
	searchTerm   string
	employeeForm client.FormValues
)

var employeesCmd = &cobra.Command{
	Use:     "employees",
	Aliases: []string{"emp"},
	Short:   "Manage employees through a running API server",
}

var listEmployeesCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees, optionally filtered by a search term",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := newDirectory()
		if err != nil {
			return err
		}
		records, err := dir.Search(cmd.Context(), searchTerm)
		if err != nil {
			return describeAPIError(err)
		}
		return printEmployees(cmd.OutOrStdout(), records)
	},
}

var getEmployeeCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEmployeeID(args[0])
		if err != nil {
			return err
		}
		dir, err := newDirectory()
		if err != nil {
			return err
		}
		e, err := dir.Get(cmd.Context(), id)
		if err != nil {
			return describeAPIError(err)
		}
		return printEmployees(cmd.OutOrStdout(), []*employee.Employee{e})
	},
}

var createEmployeeCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an employee",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := newDirectory()
		if err != nil {
			return err
		}
		form := client.NewCreateForm()
		form.Values = employeeForm
		return submitForm(cmd, dir, form)
	},
}

var updateEmployeeCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update the given fields of an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEmployeeID(args[0])
		if err != nil {
			return err
		}
		dir, err := newDirectory()
		if err != nil {
			return err
		}
		current, err := dir.Get(cmd.Context(), id)
		if err != nil {
			return describeAPIError(err)
		}

		form := client.NewEditForm(current)
		flags := cmd.Flags()
		if flags.Changed("first-name") {
			form.Values.FirstName = employeeForm.FirstName
		}
		if flags.Changed("last-name") {
			form.Values.LastName = employeeForm.LastName
		}
		if flags.Changed("email") {
			form.Values.Email = employeeForm.Email
		}
		if flags.Changed("phone") {
			form.Values.Phone = employeeForm.Phone
		}
		if flags.Changed("department") {
			form.Values.Department = employeeForm.Department
		}
		return submitForm(cmd, dir, form)
	},
}

var deleteEmployeeCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEmployeeID(args[0])
		if err != nil {
			return err
		}
		dir, err := newDirectory()
		if err != nil {
			return err
		}
		if err := dir.Delete(cmd.Context(), id); err != nil {
			return describeAPIError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Employee %d deleted\n", id)
		return nil
	},
}

func init() {
	employeesCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (defaults to client.base_url / API_BASE_URL)")
	employeesCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print JSON instead of a table")

	listEmployeesCmd.Flags().StringVarP(&searchTerm, "search", "s", "", "case-insensitive filter over every field")

	for _, c := range []*cobra.Command{createEmployeeCmd, updateEmployeeCmd} {
		c.Flags().StringVar(&employeeForm.FirstName, "first-name", "", "first name")
		c.Flags().StringVar(&employeeForm.LastName, "last-name", "", "last name")
		c.Flags().StringVar(&employeeForm.Email, "email", "", "email address")
		c.Flags().StringVar(&employeeForm.Phone, "phone", "", "phone number")
		c.Flags().StringVar(&employeeForm.Department, "department", "", "one of IT, HR, Finance, Marketing, Operations, Sales, Research")
	}

	employeesCmd.AddCommand(listEmployeesCmd, getEmployeeCmd, createEmployeeCmd, updateEmployeeCmd, deleteEmployeeCmd)
}

func newDirectory() (*client.Directory, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.Client.BaseURL
	if apiURL != "" {
		baseURL = apiURL
	}

	c, err := client.New(baseURL,
		client.WithTimeout(cfg.Client.Timeout),
		client.WithLogger(logger.LoggerWrapper()),
	)
	if err != nil {
		return nil, err
	}
	return client.NewDirectory(c), nil
}

func submitForm(cmd *cobra.Command, dir *client.Directory, form *client.Form) error {
	if err := form.Submit(cmd.Context(), dir); err != nil {
		for field, msg := range form.FieldErrors() {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
		}
		return fmt.Errorf("%s", form.Message())
	}

	fmt.Fprintln(cmd.OutOrStdout(), form.Message())
	return printEmployees(cmd.OutOrStdout(), []*employee.Employee{form.Result()})
}

func parseEmployeeID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid employee ID %q", s)
	}
	return id, nil
}

func describeAPIError(err error) error {
	if apiErr, ok := client.AsAPIError(err); ok {
		return fmt.Errorf("%s (HTTP %d)", apiErr.Message, apiErr.StatusCode)
	}
	return err
}

func printEmployees(w io.Writer, records []*employee.Employee) error {
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No employees found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tDEPARTMENT\tUPDATED")
	for _, e := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.FullName(), e.Email, e.Phone, e.Department, e.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
