package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"lawoffice/pkg/apiclient"
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func formatMaybeTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func formatMaybeString(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func printClients(items []apiclient.ClientRecord) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.FullName,
			item.Email,
			item.Phone,
			item.City,
			strconv.FormatBool(item.IsActive),
		})
	}
	printTable([]string{"ID", "NAME", "EMAIL", "PHONE", "CITY", "ACTIVE"}, rows)
}

func printClientDetail(item apiclient.ClientRecord) {
	printKV([][2]string{
		{"id", item.ID},
		{"name", item.FullName},
		{"email", item.Email},
		{"phone", item.Phone},
		{"address", item.Address},
		{"city", item.City},
		{"company", item.Company},
		{"active", strconv.FormatBool(item.IsActive)},
		{"created_at", formatTime(item.CreatedAt)},
	})
}

func printCases(items []apiclient.Case) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Title,
			item.Status,
			item.ClientID,
			strconv.FormatInt(item.NotesCount, 10),
			formatMaybeTime(item.ClosedAt),
		})
	}
	printTable([]string{"ID", "TITLE", "STATUS", "CLIENT", "NOTES", "CLOSED_AT"}, rows)
}

func printAppointments(items []apiclient.Appointment) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Title,
			item.Status,
			formatTime(item.StartTime),
			formatTime(item.EndTime),
			formatMaybeString(item.ClientID),
		})
	}
	printTable([]string{"ID", "TITLE", "STATUS", "START", "END", "CLIENT"}, rows)
}

func printInvoices(items []apiclient.Invoice) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.InvoiceNumber,
			item.ID,
			item.Status,
			item.ClientID,
			formatMoney(item.Total),
			item.DueDate.Format("2006-01-02"),
		})
	}
	printTable([]string{"NUMBER", "ID", "STATUS", "CLIENT", "TOTAL", "DUE"}, rows)
}

func printInvoiceDetail(item apiclient.Invoice) {
	printKV([][2]string{
		{"id", item.ID},
		{"number", item.InvoiceNumber},
		{"client", item.ClientID},
		{"status", item.Status},
		{"issue_date", item.IssueDate.Format("2006-01-02")},
		{"due_date", item.DueDate.Format("2006-01-02")},
		{"subtotal", formatMoney(item.Subtotal)},
		{"tax", formatMoney(item.TaxAmount)},
		{"total", formatMoney(item.Total)},
		{"paid_at", formatMaybeTime(item.PaidAt)},
	})
	if len(item.Items) == 0 {
		return
	}
	rows := make([][]string, 0, len(item.Items))
	for _, line := range item.Items {
		rows = append(rows, []string{
			line.Description,
			strconv.FormatFloat(line.Quantity, 'f', -1, 64),
			formatMoney(line.UnitPrice),
			formatMoney(line.TaxRate),
			formatMoney(line.Amount),
		})
	}
	fmt.Println()
	printTable([]string{"DESCRIPTION", "QTY", "UNIT_PRICE", "TAX_%", "AMOUNT"}, rows)
}

func printActivities(items []apiclient.Activity) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			formatTime(item.CreatedAt),
			item.ActionType,
			item.Description,
		})
	}
	printTable([]string{"AT", "ACTION", "DESCRIPTION"}, rows)
}

func printOverview(o apiclient.DashboardOverview) {
	printKV([][2]string{
		{"user", o.UserInfo.FullName + " <" + o.UserInfo.Email + ">"},
		{"clients", strconv.FormatInt(o.TotalClients, 10)},
		{"new clients this month", strconv.FormatInt(o.NewClientsThisMonth, 10)},
		{"appointments", strconv.FormatInt(o.TotalAppointments, 10)},
		{"upcoming", strconv.FormatInt(o.UpcomingAppointments, 10)},
		{"completed", strconv.FormatInt(o.CompletedAppointments, 10)},
		{"cancelled", strconv.FormatInt(o.CancelledAppointments, 10)},
		{"revenue this month", formatMoney(o.RevenueThisMonth)},
	})
	if len(o.UpcomingList) > 0 {
		fmt.Println("\nupcoming appointments:")
		printAppointments(o.UpcomingList)
	}
	if len(o.RecentActivities) > 0 {
		fmt.Println("\nrecent activity:")
		printActivities(o.RecentActivities)
	}
}
