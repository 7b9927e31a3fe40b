// lawctl is the terminal front end for the law office API. It keeps a token
// pair under ~/.lawoffice and refreshes it transparently on expiry.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"lawoffice/pkg/apiclient"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "lawctl",
		Usage: "Law office management CLI",
		Commands: []*cli.Command{
			authCommand(),
			clientsCommand(),
			casesCommand(),
			appointmentsCommand(),
			billingCommand(),
			dashboardCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		if errors.Is(err, apiclient.ErrSessionExpired) {
			log.Fatal("session expired, run `lawctl auth login` again")
		}
		log.Fatal(err)
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Login and store the token pair",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:3000"},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Server: c.String("server")}
					api := apiclient.New(cfg.Server)
					out, err := api.Login(ctx, c.String("email"), c.String("password"))
					if err != nil {
						return err
					}
					cfg.Access, cfg.Refresh = api.Tokens()
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in as %s\n", out.User.Email)
					return nil
				},
			},
			{
				Name:  "register",
				Usage: "Register a new staff account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:3000"},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "first-name", Required: true},
					&cli.StringFlag{Name: "last-name", Required: true},
					&cli.StringFlag{Name: "phone"},
					&cli.StringFlag{Name: "user-type", Value: "lawyer", Usage: "admin, lawyer or paralegal"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Server: c.String("server")}
					api := apiclient.New(cfg.Server)
					out, err := api.Register(ctx, apiclient.RegisterInput{
						Email:     c.String("email"),
						Password:  c.String("password"),
						FirstName: c.String("first-name"),
						LastName:  c.String("last-name"),
						Phone:     c.String("phone"),
						UserType:  c.String("user-type"),
					})
					if err != nil {
						return err
					}
					cfg.Access, cfg.Refresh = api.Tokens()
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("registered %s\n", out.User.Email)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show the current authenticated user",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.Me(ctx)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printKV([][2]string{
							{"id", out.ID},
							{"email", out.Email},
							{"name", out.FullName},
							{"type", out.UserType},
						})
						return nil
					})
				},
			},
			{
				Name:  "change-password",
				Usage: "Change the current user's password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "old", Required: true},
					&cli.StringFlag{Name: "new", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						if err := api.ChangePassword(ctx, c.String("old"), c.String("new")); err != nil {
							return err
						}
						fmt.Println("password changed")
						return nil
					})
				},
			},
			{
				Name:  "logout",
				Usage: "Clear the stored token pair",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					cfg.Access = ""
					cfg.Refresh = ""
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				},
			},
		},
	}
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Value: 1},
		&cli.IntFlag{Name: "page-size", Value: 10},
		jsonFlag(),
	}
}

func listOptions(c *cli.Command) apiclient.ListOptions {
	return apiclient.ListOptions{
		Page:     c.Int("page"),
		PageSize: c.Int("page-size"),
	}
}

func clientsCommand() *cli.Command {
	return &cli.Command{
		Name:  "clients",
		Usage: "Client commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List clients",
				Flags: append(listFlags(),
					&cli.StringFlag{Name: "search"},
					&cli.StringFlag{Name: "city"},
					&cli.BoolFlag{Name: "active"},
					&cli.BoolFlag{Name: "inactive"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						opts := listOptions(c)
						opts.Search = c.String("search")
						opts.City = c.String("city")
						if c.Bool("active") {
							v := true
							opts.IsActive = &v
						}
						if c.Bool("inactive") {
							v := false
							opts.IsActive = &v
						}
						out, err := api.ListClients(ctx, opts)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printClients(out.Results)
						fmt.Printf("page %d/%d (%d total)\n", out.Page, out.Pages, out.Total)
						return nil
					})
				},
			},
			{
				Name:      "get",
				Usage:     "Show a client",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.GetClient(ctx, c.Args().First())
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printClientDetail(out)
						return nil
					})
				},
			},
			{
				Name:  "create",
				Usage: "Create a client",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Required: true},
					&cli.StringFlag{Name: "last-name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "phone"},
					&cli.StringFlag{Name: "address"},
					&cli.StringFlag{Name: "city"},
					&cli.StringFlag{Name: "company"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.CreateClient(ctx, apiclient.ClientInput{
							FirstName: c.String("first-name"),
							LastName:  c.String("last-name"),
							Email:     c.String("email"),
							Phone:     c.String("phone"),
							Address:   c.String("address"),
							City:      c.String("city"),
							Company:   c.String("company"),
						})
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printClientDetail(out)
						return nil
					})
				},
			},
			{
				Name:      "deactivate",
				Usage:     "Deactivate a client",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.DeactivateClient(ctx, c.Args().First())
						if err != nil {
							return err
						}
						fmt.Printf("client %s deactivated\n", out.FullName)
						return nil
					})
				},
			},
			{
				Name:      "activate",
				Usage:     "Reactivate a client",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.ActivateClient(ctx, c.Args().First())
						if err != nil {
							return err
						}
						fmt.Printf("client %s activated\n", out.FullName)
						return nil
					})
				},
			},
			{
				Name:  "stats",
				Usage: "Client statistics",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.ClientStats(ctx)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printKV([][2]string{
							{"total", strconv.FormatInt(out.TotalClients, 10)},
							{"active", strconv.FormatInt(out.ActiveClients, 10)},
							{"inactive", strconv.FormatInt(out.InactiveClients, 10)},
							{"new this month", strconv.FormatInt(out.NewClientsThisMonth, 10)},
						})
						return nil
					})
				},
			},
			{
				Name:      "note",
				Usage:     "Add a note to a client",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "content", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						_, err := api.AddClientNote(ctx, c.Args().First(), c.String("title"), c.String("content"))
						if err != nil {
							return err
						}
						fmt.Println("note added")
						return nil
					})
				},
			},
		},
	}
}

func casesCommand() *cli.Command {
	return &cli.Command{
		Name:  "cases",
		Usage: "Case commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cases",
				Flags: append(listFlags(),
					&cli.StringFlag{Name: "status", Usage: "open, in_progress, pending or closed"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						opts := listOptions(c)
						opts.Status = c.String("status")
						out, err := api.ListCases(ctx, opts)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printCases(out.Results)
						fmt.Printf("page %d/%d (%d total)\n", out.Page, out.Pages, out.Total)
						return nil
					})
				},
			},
			{
				Name:      "get",
				Usage:     "Show a case",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.GetCase(ctx, c.Args().First())
						if err != nil {
							return err
						}
						return printJSON(out)
					})
				},
			},
			{
				Name:  "create",
				Usage: "Open a case for a client",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "client", Required: true, Usage: "client id"},
					&cli.StringFlag{Name: "description"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.CreateCase(ctx, apiclient.CaseInput{
							Title:       c.String("title"),
							ClientID:    c.String("client"),
							Description: c.String("description"),
						})
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printCases([]apiclient.Case{out})
						return nil
					})
				},
			},
			{
				Name:      "note",
				Usage:     "Add a note to a case",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "content", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						_, err := api.AddCaseNote(ctx, c.Args().First(), c.String("content"))
						if err != nil {
							return err
						}
						fmt.Println("note added")
						return nil
					})
				},
			},
			{
				Name:      "assign-to-me",
				Usage:     "Assign a case to yourself",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						if err := api.AssignCaseToMe(ctx, c.Args().First()); err != nil {
							return err
						}
						fmt.Println("case assigned to you")
						return nil
					})
				},
			},
			{
				Name:      "close",
				Usage:     "Close a case",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.CloseCase(ctx, c.Args().First())
						if err != nil {
							return err
						}
						fmt.Printf("case %q closed at %s\n", out.Title, formatMaybeTime(out.ClosedAt))
						return nil
					})
				},
			},
		},
	}
}

func appointmentsCommand() *cli.Command {
	statusAction := func(action string) func(context.Context, *cli.Command) error {
		return func(ctx context.Context, c *cli.Command) error {
			return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
				var (
					out apiclient.Appointment
					err error
				)
				switch action {
				case "confirm":
					out, err = api.ConfirmAppointment(ctx, c.Args().First())
				case "cancel":
					out, err = api.CancelAppointment(ctx, c.Args().First())
				case "complete":
					out, err = api.CompleteAppointment(ctx, c.Args().First())
				}
				if err != nil {
					return err
				}
				fmt.Printf("appointment %q is now %s\n", out.Title, out.Status)
				return nil
			})
		}
	}

	return &cli.Command{
		Name:  "appointments",
		Usage: "Appointment commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List appointments",
				Flags: append(listFlags(),
					&cli.StringFlag{Name: "status"},
					&cli.StringFlag{Name: "client", Usage: "client id"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						opts := listOptions(c)
						opts.Status = c.String("status")
						opts.ClientID = c.String("client")
						out, err := api.ListAppointments(ctx, opts)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printAppointments(out.Results)
						fmt.Printf("page %d/%d (%d total)\n", out.Page, out.Pages, out.Total)
						return nil
					})
				},
			},
			{
				Name:  "create",
				Usage: "Schedule an appointment",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "start", Required: true, Usage: "RFC3339, e.g. 2026-09-01T10:00:00Z"},
					&cli.StringFlag{Name: "end", Required: true, Usage: "RFC3339"},
					&cli.StringFlag{Name: "client", Usage: "client id"},
					&cli.StringFlag{Name: "case", Usage: "case id"},
					&cli.StringFlag{Name: "location"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.CreateAppointment(ctx, apiclient.AppointmentInput{
							Title:     c.String("title"),
							StartTime: c.String("start"),
							EndTime:   c.String("end"),
							ClientID:  c.String("client"),
							CaseID:    c.String("case"),
							Location:  c.String("location"),
						})
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printAppointments([]apiclient.Appointment{out})
						return nil
					})
				},
			},
			{
				Name:  "upcoming",
				Usage: "Upcoming appointments",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.UpcomingAppointments(ctx)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printAppointments(out)
						return nil
					})
				},
			},
			{
				Name:  "today",
				Usage: "Today's appointments",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.TodayAppointments(ctx)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printAppointments(out)
						return nil
					})
				},
			},
			{
				Name:  "stats",
				Usage: "Appointment statistics",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.AppointmentStats(ctx)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printKV([][2]string{
							{"total", strconv.FormatInt(out.Total, 10)},
							{"today", strconv.FormatInt(out.Today, 10)},
							{"upcoming", strconv.FormatInt(out.Upcoming, 10)},
							{"completed", strconv.FormatInt(out.Completed, 10)},
							{"cancelled", strconv.FormatInt(out.Cancelled, 10)},
						})
						return nil
					})
				},
			},
			{Name: "confirm", Usage: "Confirm an appointment", ArgsUsage: "<id>", Action: statusAction("confirm")},
			{Name: "cancel", Usage: "Cancel an appointment", ArgsUsage: "<id>", Action: statusAction("cancel")},
			{Name: "complete", Usage: "Complete an appointment", ArgsUsage: "<id>", Action: statusAction("complete")},
		},
	}
}

// parseItem reads "description|qty|unit_price|tax_rate"; tax is optional.
func parseItem(raw string) (apiclient.InvoiceItemInput, error) {
	parts := strings.Split(raw, "|")
	if len(parts) < 3 {
		return apiclient.InvoiceItemInput{}, fmt.Errorf("bad item %q, want description|qty|unit_price[|tax_rate]", raw)
	}
	qty, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return apiclient.InvoiceItemInput{}, fmt.Errorf("bad quantity in %q", raw)
	}
	price, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return apiclient.InvoiceItemInput{}, fmt.Errorf("bad unit price in %q", raw)
	}
	item := apiclient.InvoiceItemInput{Description: parts[0], Quantity: qty, UnitPrice: price}
	if len(parts) > 3 {
		if item.TaxRate, err = strconv.ParseFloat(parts[3], 64); err != nil {
			return apiclient.InvoiceItemInput{}, fmt.Errorf("bad tax rate in %q", raw)
		}
	}
	return item, nil
}

func billingCommand() *cli.Command {
	return &cli.Command{
		Name:  "billing",
		Usage: "Invoice commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List invoices",
				Flags: append(listFlags(),
					&cli.StringFlag{Name: "status", Usage: "draft, sent, paid, overdue or cancelled"},
					&cli.StringFlag{Name: "client", Usage: "client id"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						opts := listOptions(c)
						opts.Status = c.String("status")
						opts.ClientID = c.String("client")
						out, err := api.ListInvoices(ctx, opts)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printInvoices(out.Results)
						fmt.Printf("page %d/%d (%d total)\n", out.Page, out.Pages, out.Total)
						return nil
					})
				},
			},
			{
				Name:      "get",
				Usage:     "Show an invoice with its items",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.GetInvoice(ctx, c.Args().First())
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printInvoiceDetail(out)
						return nil
					})
				},
			},
			{
				Name:  "create",
				Usage: "Create an invoice; totals are computed server-side",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "client", Required: true, Usage: "client id"},
					&cli.StringFlag{Name: "case", Usage: "case id"},
					&cli.StringFlag{Name: "issue-date", Required: true, Usage: "YYYY-MM-DD"},
					&cli.StringFlag{Name: "due-date", Required: true, Usage: "YYYY-MM-DD"},
					&cli.StringSliceFlag{Name: "item", Required: true, Usage: "description|qty|unit_price[|tax_rate], repeatable"},
					&cli.StringFlag{Name: "notes"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						items := make([]apiclient.InvoiceItemInput, 0, len(c.StringSlice("item")))
						for _, raw := range c.StringSlice("item") {
							item, err := parseItem(raw)
							if err != nil {
								return err
							}
							items = append(items, item)
						}
						out, err := api.CreateInvoice(ctx, apiclient.InvoiceInput{
							ClientID:  c.String("client"),
							CaseID:    c.String("case"),
							IssueDate: c.String("issue-date"),
							DueDate:   c.String("due-date"),
							Notes:     c.String("notes"),
							Items:     items,
						})
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printInvoiceDetail(out)
						return nil
					})
				},
			},
			{
				Name:      "send",
				Usage:     "Mark a draft invoice as sent",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.SendInvoice(ctx, c.Args().First())
						if err != nil {
							return err
						}
						fmt.Printf("invoice %s sent\n", out.InvoiceNumber)
						return nil
					})
				},
			},
			{
				Name:      "mark-paid",
				Usage:     "Mark an invoice as paid",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.MarkInvoicePaid(ctx, c.Args().First())
						if err != nil {
							return err
						}
						fmt.Printf("invoice %s paid at %s\n", out.InvoiceNumber, formatMaybeTime(out.PaidAt))
						return nil
					})
				},
			},
		},
	}
}

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Dashboard commands",
		Commands: []*cli.Command{
			{
				Name:  "overview",
				Usage: "Live counts and recent activity",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.Dashboard(ctx)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printOverview(out)
						return nil
					})
				},
			},
			{
				Name:  "stats",
				Usage: "Daily snapshot history",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.DashboardStats(ctx)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						rows := make([][]string, 0, len(out))
						for _, s := range out {
							rows = append(rows, []string{
								s.StatDate.Format("2006-01-02"),
								strconv.FormatInt(s.TotalClients, 10),
								strconv.FormatInt(s.TotalAppointments, 10),
								strconv.FormatInt(s.UpcomingAppointments, 10),
								formatMoney(s.RevenueThisMonth),
							})
						}
						printTable([]string{"DATE", "CLIENTS", "APPOINTMENTS", "UPCOMING", "REVENUE"}, rows)
						return nil
					})
				},
			},
			{
				Name:  "snapshot",
				Usage: "Write today's snapshot row",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.SnapshotDashboardStats(ctx)
						if err != nil {
							return err
						}
						fmt.Printf("snapshot written for %s\n", out.StatDate.Format("2006-01-02"))
						return nil
					})
				},
			},
			{
				Name:  "activity",
				Usage: "Recent activity log",
				Flags: []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withClient(ctx, func(ctx context.Context, api *apiclient.Client) error {
						out, err := api.RecentActivities(ctx)
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(out)
						}
						printActivities(out)
						return nil
					})
				},
			},
		},
	}
}
