package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func Test_Compute_PendingAmount(t *testing.T) {
	cases := []struct {
		billed, paid, want int64
	}{
		{1000, 400, 600},
		{0, 0, 0},
		{500, 500, 0},
		{300, 450, -150},
	}
	for _, tc := range cases {
		s, err := Compute(&models.Client{TotalBilled: tc.billed, TotalPaid: tc.paid}, nil, nil, nil, now)
		if err != nil {
			t.Fatal(err)
		}
		if s.PendingAmount != tc.want {
			t.Fatalf("billed=%d paid=%d: want %d got %d", tc.billed, tc.paid, tc.want, s.PendingAmount)
		}
	}
}

func Test_Compute_PendingInvoicesFilteredAndSorted(t *testing.T) {
	invoices := []models.Invoice{
		{Number: "A", Status: models.InvoicePending, DueDate: now.AddDate(0, 0, 1)},
		{Number: "B", Status: models.InvoicePaid, DueDate: now.AddDate(0, 0, 5)},
		{Number: "C", Status: models.InvoiceOverdue, DueDate: now.AddDate(0, 0, 3)},
		{Number: "D", Status: models.InvoicePartial, DueDate: now.AddDate(0, 0, 9)},
	}
	s, err := Compute(&models.Client{}, nil, nil, invoices, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.PendingInvoices) != 2 {
		t.Fatalf("want 2 pending invoices, got %d", len(s.PendingInvoices))
	}
	if s.PendingInvoices[0].Number != "C" || s.PendingInvoices[1].Number != "A" {
		t.Fatalf("want [C A] by due date desc, got [%s %s]", s.PendingInvoices[0].Number, s.PendingInvoices[1].Number)
	}
}

func Test_Compute_ProjectAndTaskCounts(t *testing.T) {
	projects := []models.Project{
		{Status: models.ProjectActive}, {Status: models.ProjectActive},
		{Status: models.ProjectPaused}, {Status: models.ProjectCompleted},
	}
	tasks := []models.Task{
		{Title: "now", Status: models.TaskTodo, DueDate: at(0)},
		{Title: "in 7d", Status: models.TaskInProgress, DueDate: at(DeadlineWindow)},
		{Title: "in 8d", Status: models.TaskTodo, DueDate: at(8 * 24 * time.Hour)},
		{Title: "overdue", Status: models.TaskTodo, DueDate: at(-time.Minute)},
		{Title: "no date", Status: models.TaskTodo},
		{Title: "done", Status: models.TaskCompleted, CompletedAt: at(-time.Hour)},
	}
	s, err := Compute(&models.Client{}, projects, tasks, nil, now)
	if err != nil {
		t.Fatal(err)
	}
	if s.ActiveProjects != 2 {
		t.Fatalf("want 2 active projects, got %d", s.ActiveProjects)
	}
	if s.CompletedTasks != 1 {
		t.Fatalf("want 1 completed task, got %d", s.CompletedTasks)
	}
	if s.UpcomingDeadlines != 2 {
		t.Fatalf("want 2 upcoming deadlines, got %d", s.UpcomingDeadlines)
	}
}

func Test_Compute_RecentTasksNewestFirstCappedAtFive(t *testing.T) {
	var tasks []models.Task
	for i := 1; i <= 7; i++ {
		tasks = append(tasks, models.Task{
			Title:       string(rune('a' + i - 1)),
			Status:      models.TaskCompleted,
			CompletedAt: at(time.Duration(-i) * time.Hour),
		})
	}
	tasks = append(tasks, models.Task{Title: "todo", Status: models.TaskTodo})

	s, _ := Compute(&models.Client{}, nil, tasks, nil, now)
	if len(s.RecentTasks) != 5 {
		t.Fatalf("want 5 recent tasks, got %d", len(s.RecentTasks))
	}
	if s.RecentTasks[0].Title != "a" || s.RecentTasks[4].Title != "e" {
		t.Fatalf("unexpected order: %s..%s", s.RecentTasks[0].Title, s.RecentTasks[4].Title)
	}
}

func Test_Compute_MissingClientZeroes(t *testing.T) {
	s, err := Compute(nil, []models.Project{{Status: models.ProjectActive}}, nil, nil, now)
	if !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("want ErrClientNotFound, got %v", err)
	}
	if s.ActiveProjects != 0 || s.RecentTasks == nil || len(s.PendingInvoices) != 0 {
		t.Fatalf("want zeroed stats, got %+v", s)
	}
}

type fakeRepo struct {
	client   *models.Client
	projects []models.Project
	tasks    []models.Task
	invoices []models.Invoice
	err      error
}

func (f *fakeRepo) GetClient(context.Context, uuid.UUID) (*models.Client, error) {
	return f.client, nil
}

func (f *fakeRepo) ListProjectsByClient(context.Context, uuid.UUID) ([]models.Project, error) {
	return f.projects, nil
}

func (f *fakeRepo) ListTasksByProjects(_ context.Context, ids []uuid.UUID) ([]models.Task, error) {
	if len(ids) != len(f.projects) {
		return nil, errors.New("tasks requested for the wrong projects")
	}
	return f.tasks, nil
}

func (f *fakeRepo) ListInvoicesByClient(context.Context, uuid.UUID) ([]models.Invoice, error) {
	return f.invoices, f.err
}

func Test_Service_ForClient(t *testing.T) {
	repo := &fakeRepo{
		client:   &models.Client{TotalBilled: 1000, TotalPaid: 400},
		projects: []models.Project{{ID: uuid.New(), Status: models.ProjectActive}},
		tasks:    []models.Task{{Status: models.TaskCompleted}},
		invoices: []models.Invoice{{Status: models.InvoicePending}},
	}
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return now }

	s, err := svc.ForClient(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if s.PendingAmount != 600 || s.ActiveProjects != 1 || s.CompletedTasks != 1 || len(s.PendingInvoices) != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func Test_Service_LoadFailureIsZeroed(t *testing.T) {
	repo := &fakeRepo{
		client:   &models.Client{TotalBilled: 10},
		projects: []models.Project{{Status: models.ProjectActive}},
		err:      errors.New("connection reset"),
	}
	s, err := NewService(repo, nil).ForClient(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error")
	}
	if s.ActiveProjects != 0 || s.TotalBilled != 0 {
		t.Fatalf("want zeroed stats, got %+v", s)
	}
}

func Test_Service_MissingClient(t *testing.T) {
	_, err := NewService(&fakeRepo{}, nil).ForClient(context.Background(), uuid.New())
	if !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("want ErrClientNotFound, got %v", err)
	}
}
