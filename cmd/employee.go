package cmd

import (
	"fmt"
	"io"
	"net/mail"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tiliavir/ponto/internal/model"
	"github.com/Tiliavir/ponto/internal/remote"
)

var (
	employeeName     string
	employeeEmail    string
	employeeRole     string
	employeePassword string
	employeeRemote   bool

	employeeListRole   string
	employeeListRemote bool
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Register and list employees",
}

var employeeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an employee",
	Args:  cobra.NoArgs,
	RunE:  runEmployeeAdd,
}

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees",
	Args:  cobra.NoArgs,
	RunE:  runEmployeeList,
}

func init() {
	employeeAddCmd.Flags().StringVar(&employeeName, "name", "", "Full name")
	employeeAddCmd.Flags().StringVar(&employeeEmail, "email", "", "Work email (required)")
	employeeAddCmd.Flags().StringVar(&employeeRole, "role", string(model.RoleEmployee), "Role: employee or admin")
	employeeAddCmd.Flags().StringVar(&employeePassword, "password", "", "Temporary password (required with --remote)")
	employeeAddCmd.Flags().BoolVar(&employeeRemote, "remote", false, "Also create the account on the backend")
	_ = employeeAddCmd.MarkFlagRequired("email")

	employeeListCmd.Flags().StringVar(&employeeListRole, "role", string(model.RoleEmployee), "Role filter: employee, admin or all")
	employeeListCmd.Flags().BoolVar(&employeeListRemote, "remote", false, "List employees from the backend")

	employeeCmd.AddCommand(employeeAddCmd)
	employeeCmd.AddCommand(employeeListCmd)
}

func parseRole(s string) (model.Role, error) {
	switch model.Role(s) {
	case model.RoleEmployee, model.RoleAdmin:
		return model.Role(s), nil
	}
	return "", userError("unknown role %q (want employee or admin)", s)
}

func runEmployeeAdd(cmd *cobra.Command, args []string) error {
	if _, err := mail.ParseAddress(employeeEmail); err != nil {
		return userError("invalid --email %q: %v", employeeEmail, err)
	}
	role, err := parseRole(employeeRole)
	if err != nil {
		return err
	}
	if employeeRemote && employeePassword == "" {
		return userError("--password is required with --remote")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.store.Close()
	ctx := cmd.Context()

	e := model.Employee{
		ID:        uuid.NewString(),
		FullName:  employeeName,
		WorkEmail: employeeEmail,
		Role:      role,
		CreatedAt: a.now(),
	}

	if employeeRemote {
		client, err := a.remoteClient(ctx)
		if err != nil {
			return err
		}
		email, err := client.RegisterEmployee(ctx, remote.RegisterRequest{
			Email:    e.WorkEmail,
			FullName: e.FullName,
			Password: employeePassword,
		})
		if err != nil {
			return systemError(fmt.Errorf("could not register employee on the backend: %w", err))
		}
		e.WorkEmail = email
	}

	if err := a.store.SaveEmployee(ctx, e); err != nil {
		return systemError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s <%s> as %s (id %s)\n", e.FullName, e.WorkEmail, e.Role, e.ID)
	return nil
}

func runEmployeeList(cmd *cobra.Command, args []string) error {
	var role model.Role
	if employeeListRole != "all" {
		r, err := parseRole(employeeListRole)
		if err != nil {
			return err
		}
		role = r
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.store.Close()
	ctx := cmd.Context()

	var list []model.Employee
	if employeeListRemote {
		client, err := a.remoteClient(ctx)
		if err != nil {
			return err
		}
		if list, err = client.ListEmployees(ctx, role); err != nil {
			return systemError(err)
		}
	} else if list, err = a.store.Employees(ctx, role); err != nil {
		return systemError(err)
	}

	if viper.GetBool("json") {
		return printJSON(cmd.OutOrStdout(), list)
	}
	printEmployees(cmd.OutOrStdout(), list)
	return nil
}

func printEmployees(w io.Writer, list []model.Employee) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No employees found.")
		return
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"ID", "Name", "Email", "Role"})
	for _, e := range list {
		name := e.FullName
		if name == "" {
			name = "(sem nome)"
		}
		tw.AppendRow(table.Row{e.ID, name, e.WorkEmail, e.Role})
	}
	tw.Render()
}
