package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/khanghh/klms/internal/audit"
	"github.com/khanghh/klms/internal/employees"
	"github.com/khanghh/klms/internal/sessions"
	"github.com/khanghh/klms/internal/token"
	"github.com/khanghh/klms/model"
	"github.com/urfave/cli/v2"
)

var (
	empIDFlag = &cli.StringFlag{
		Name:     "emp-id",
		Usage:    "Employee code",
		Required: true,
	}
	passwordFlag = &cli.StringFlag{
		Name:     "password",
		Usage:    "Password",
		EnvVars:  []string{"KLMS_PASSWORD"},
		Required: true,
	}
)

var employeeCommand = &cli.Command{
	Name:  "employee",
	Usage: "Manage employee accounts directly in the database",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "List employees",
			Action: listEmployees,
		},
		{
			Name:  "create",
			Usage: "Create an employee",
			Flags: []cli.Flag{
				empIDFlag,
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "name", Usage: "Full name", Required: true},
				&cli.StringFlag{Name: "department"},
				&cli.StringFlag{Name: "role", Value: string(model.RoleEmployee)},
				passwordFlag,
			},
			Action: createEmployee,
		},
		{
			Name:   "passwd",
			Usage:  "Set an employee's password",
			Flags:  []cli.Flag{empIDFlag, passwordFlag},
			Action: setEmployeePassword,
		},
		{
			Name:   "deactivate",
			Usage:  "Deactivate an employee and end all of their sessions",
			Flags:  []cli.Flag{empIDFlag},
			Action: deactivateEmployee,
		},
	},
}

type employeeCLI struct {
	employees *employees.EmployeeService
	recorder  *audit.Recorder
}

func newEmployeeCLI(ctx *cli.Context) (*employeeCLI, error) {
	config, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	db := mustInitDatabase(config.Database, config.Debug)
	sessionManager := sessions.NewManager(sessions.NewSessionRepository(db), token.NewIssuer(config.JWTSecret, nil))
	return &employeeCLI{
		employees: employees.NewEmployeeService(employees.NewEmployeeRepository(db), sessionManager),
		recorder:  audit.NewRecorder(audit.NewAuditLogRepository(db)),
	}, nil
}

// record writes a system-originated audit entry; operator commands have no acting employee.
func (c *employeeCLI) record(ctx *cli.Context, eventType string, severity model.Severity, employee *model.Employee, details map[string]interface{}) {
	c.recorder.Record(ctx.Context, audit.Event{
		EventType:    eventType,
		Category:     model.CategoryAdmin,
		Severity:     severity,
		ResourceType: audit.ResourceEmployee,
		ResourceID:   employee.ID,
		Details:      details,
	})
}

func listEmployees(ctx *cli.Context) error {
	c, err := newEmployeeCLI(ctx)
	if err != nil {
		return err
	}
	list, err := c.employees.List(ctx.Context)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMP ID\tNAME\tEMAIL\tDEPARTMENT\tROLE\tACTIVE\tLAST LOGIN")
	for _, e := range list {
		lastLogin := "-"
		if e.LastLoginAt != nil {
			lastLogin = e.LastLoginAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n", e.EmpID, e.FullName, e.Email, e.Department, e.Role, e.IsActive, lastLogin)
	}
	return w.Flush()
}

func createEmployee(ctx *cli.Context) error {
	c, err := newEmployeeCLI(ctx)
	if err != nil {
		return err
	}
	employee, err := c.employees.Create(ctx.Context, employees.CreateEmployeeOptions{
		EmpID:      ctx.String("emp-id"),
		Email:      ctx.String("email"),
		FullName:   ctx.String("name"),
		Department: ctx.String("department"),
		Role:       model.Role(ctx.String("role")),
		Password:   ctx.String("password"),
	})
	if err != nil {
		return err
	}
	c.record(ctx, audit.EventEmployeeCreated, model.SeverityInfo, employee, map[string]interface{}{
		"emp_id": employee.EmpID,
		"role":   employee.Role,
		"source": "cli",
	})
	fmt.Printf("Created employee %s (%s)\n", employee.EmpID, employee.ID)
	return nil
}

func setEmployeePassword(ctx *cli.Context) error {
	c, err := newEmployeeCLI(ctx)
	if err != nil {
		return err
	}
	employee, err := c.employees.GetByEmpID(ctx.Context, ctx.String("emp-id"))
	if err != nil {
		return err
	}
	var patch employees.Patch
	if err := patch.SetPassword(ctx.String("password")); err != nil {
		return err
	}
	if _, err := c.employees.Update(ctx.Context, employee.ID, "", patch); err != nil {
		return err
	}
	c.record(ctx, audit.EventEmployeeUpdated, model.SeverityInfo, employee, map[string]interface{}{
		"emp_id":         employee.EmpID,
		"updated_fields": []string{string(employees.FieldPassword)},
		"source":         "cli",
	})
	fmt.Printf("Password updated for %s\n", employee.EmpID)
	return nil
}

func deactivateEmployee(ctx *cli.Context) error {
	c, err := newEmployeeCLI(ctx)
	if err != nil {
		return err
	}
	employee, err := c.employees.GetByEmpID(ctx.Context, ctx.String("emp-id"))
	if err != nil {
		return err
	}
	if _, err := c.employees.Deactivate(ctx.Context, employee.ID, ""); err != nil {
		return err
	}
	c.record(ctx, audit.EventEmployeeDeleted, model.SeverityWarning, employee, map[string]interface{}{
		"emp_id":    employee.EmpID,
		"full_name": employee.FullName,
		"source":    "cli",
	})
	fmt.Printf("Deactivated %s and ended their sessions\n", employee.EmpID)
	return nil
}
