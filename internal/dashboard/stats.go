// Package dashboard derives the portal summary for one client from its
// projects, tasks and invoices.
package dashboard

import (
	"errors"
	"sort"
	"time"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

// ErrClientNotFound is reported when the owning client cannot be resolved.
var ErrClientNotFound = errors.New("client record not found for this account")

const (
	// DeadlineWindow is how far ahead a due task counts as upcoming.
	DeadlineWindow = 7 * 24 * time.Hour
	recentTaskCap  = 5
)

type Stats struct {
	ActiveProjects    int              `json:"active_projects"`
	CompletedTasks    int              `json:"completed_tasks"`
	UpcomingDeadlines int              `json:"upcoming_deadlines"`
	PendingAmount     int64            `json:"pending_amount"`
	TotalBilled       int64            `json:"total_billed"`
	TotalPaid         int64            `json:"total_paid"`
	RecentTasks       []models.Task    `json:"recent_tasks"`
	PendingInvoices   []models.Invoice `json:"pending_invoices"`
}

// Zero is the empty summary shown when nothing can be computed.
func Zero() Stats {
	return Stats{RecentTasks: []models.Task{}, PendingInvoices: []models.Invoice{}}
}

// Compute builds the summary. Without a client it returns ErrClientNotFound
// and a zeroed summary, never a partial one.
func Compute(client *models.Client, projects []models.Project, tasks []models.Task, invoices []models.Invoice, now time.Time) (Stats, error) {
	if client == nil {
		return Zero(), ErrClientNotFound
	}

	s := Zero()
	s.TotalBilled, s.TotalPaid = client.TotalBilled, client.TotalPaid
	// Overpaid clients go negative.
	s.PendingAmount = client.TotalBilled - client.TotalPaid

	for _, p := range projects {
		if p.Status == models.ProjectActive {
			s.ActiveProjects++
		}
	}

	horizon := now.Add(DeadlineWindow)
	completed := []models.Task{}
	for _, t := range tasks {
		if t.Status == models.TaskCompleted {
			s.CompletedTasks++
			completed = append(completed, t)
		}
		if t.DueDate != nil && !t.DueDate.Before(now) && !t.DueDate.After(horizon) {
			s.UpcomingDeadlines++
		}
	}

	sort.SliceStable(completed, func(i, j int) bool {
		a, b := completed[i].CompletedAt, completed[j].CompletedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	if len(completed) > recentTaskCap {
		completed = completed[:recentTaskCap]
	}
	s.RecentTasks = completed

	for _, inv := range invoices {
		if inv.Status == models.InvoicePending || inv.Status == models.InvoiceOverdue {
			s.PendingInvoices = append(s.PendingInvoices, inv)
		}
	}
	sort.SliceStable(s.PendingInvoices, func(i, j int) bool {
		return s.PendingInvoices[i].DueDate.After(s.PendingInvoices[j].DueDate)
	})
	return s, nil
}
