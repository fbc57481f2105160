package messages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/internal/notifications"
	"github.com/aldoetobex/freelance-portal/internal/realtime"
	"github.com/aldoetobex/freelance-portal/pkg/dedup"
	"github.com/aldoetobex/freelance-portal/pkg/models"
)

type fakeRepo struct {
	projects map[uuid.UUID]*models.Project
	users    map[uuid.UUID]*models.User // by client id
	msgs     []*models.Message
	creates  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{projects: map[uuid.UUID]*models.Project{}, users: map[uuid.UUID]*models.User{}}
}

func (f *fakeRepo) CreateMessage(_ context.Context, m *models.Message) error {
	f.creates++
	for _, x := range f.msgs {
		if x.ProjectID == m.ProjectID && x.CorrelationID != nil && m.CorrelationID != nil && *x.CorrelationID == *m.CorrelationID {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	m.ID = uuid.New()
	cp := *m
	f.msgs = append(f.msgs, &cp)
	return nil
}

func (f *fakeRepo) GetMessage(_ context.Context, id uuid.UUID) (*models.Message, error) {
	for _, m := range f.msgs {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) GetMessageByCorrelation(_ context.Context, projectID uuid.UUID, corr string) (*models.Message, error) {
	for _, m := range f.msgs {
		if m.ProjectID == projectID && m.CorrelationID != nil && *m.CorrelationID == corr {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListMessages(_ context.Context, projectID uuid.UUID) ([]models.Message, error) {
	out := []models.Message{}
	for _, m := range f.msgs {
		if m.ProjectID == projectID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkMessageRead(_ context.Context, id uuid.UUID) error {
	for _, m := range f.msgs {
		if m.ID == id {
			m.IsRead = true
		}
	}
	return nil
}

func (f *fakeRepo) GetProject(_ context.Context, id uuid.UUID) (*models.Project, error) {
	return f.projects[id], nil
}

func (f *fakeRepo) GetUserByClient(_ context.Context, clientID uuid.UUID) (*models.User, error) {
	return f.users[clientID], nil
}

type fakeNotifier struct{ sent []notifications.Input }

func (n *fakeNotifier) Notify(_ context.Context, in notifications.Input) (*models.Notification, error) {
	n.sent = append(n.sent, in)
	return &models.Notification{ID: uuid.New(), UserID: in.UserID, Title: in.Title}, nil
}

// alwaysClaim simulates Redis being unavailable: every key looks new.
type alwaysClaim struct{}

func (alwaysClaim) Claim(context.Context, string, string) bool { return true }

func setup(t *testing.T) (*Service, *fakeRepo, *fakeNotifier, *realtime.Hub, *models.Project) {
	t.Helper()
	repo := newFakeRepo()
	p := &models.Project{ID: uuid.New(), ClientID: uuid.New(), Name: "Site institucional"}
	repo.projects[p.ID] = p
	repo.users[p.ClientID] = &models.User{ID: uuid.New(), Role: models.RoleClient}
	n := &fakeNotifier{}
	hub := realtime.NewHub(nil)
	return NewService(repo, dedup.NewMemory(time.Minute), n, hub, nil), repo, n, hub, p
}

func Test_Send_PublishesInsert(t *testing.T) {
	svc, _, _, hub, p := setup(t)
	sub := hub.Subscribe(realtime.MessagesChannel(p.ID.String()), 4)
	defer sub.Close()

	m, created, err := svc.Send(context.Background(), SendInput{
		ProjectID: p.ID, SenderID: uuid.New(), SenderType: models.SenderClient, Content: "  Olá!  ",
	})
	if err != nil || !created {
		t.Fatalf("send: created=%v err=%v", created, err)
	}
	if m.Content != "Olá!" {
		t.Fatalf("content should be trimmed, got %q", m.Content)
	}
	if m.CorrelationID == nil || *m.CorrelationID == "" {
		t.Fatalf("correlation id should be generated")
	}

	select {
	case ev := <-sub.Events:
		if ev.Type != realtime.Insert || ev.Record.(models.Message).ID != m.ID {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no INSERT published")
	}
}

func Test_Send_RetryWithSameCorrelationIsDeduplicated(t *testing.T) {
	svc, repo, _, hub, p := setup(t)
	sub := hub.Subscribe(realtime.MessagesChannel(p.ID.String()), 4)
	defer sub.Close()

	in := SendInput{ProjectID: p.ID, SenderID: uuid.New(), SenderType: models.SenderClient, Content: "oi", CorrelationID: "c-1"}
	first, _, err := svc.Send(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	again, created, err := svc.Send(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if created || again.ID != first.ID {
		t.Fatalf("retry must return the stored message")
	}
	if repo.creates != 1 {
		t.Fatalf("want 1 insert, got %d", repo.creates)
	}
	<-sub.Events
	select {
	case ev := <-sub.Events:
		t.Fatalf("duplicate must not publish, got %+v", ev)
	default:
	}
}

func Test_Send_UniqueIndexCatchesDuplicateWhenClaimsUnavailable(t *testing.T) {
	repo := newFakeRepo()
	p := &models.Project{ID: uuid.New(), ClientID: uuid.New()}
	repo.projects[p.ID] = p
	svc := NewService(repo, alwaysClaim{}, nil, nil, nil)

	in := SendInput{ProjectID: p.ID, SenderType: models.SenderClient, Content: "oi", CorrelationID: "c-2"}
	first, _, _ := svc.Send(context.Background(), in)
	again, created, err := svc.Send(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if created || again.ID != first.ID {
		t.Fatalf("duplicate should resolve to the stored message")
	}
	if len(repo.msgs) != 1 {
		t.Fatalf("want 1 stored message, got %d", len(repo.msgs))
	}
}

func Test_Send_RejectsBlankAndUnknownProject(t *testing.T) {
	svc, _, _, _, p := setup(t)
	if _, _, err := svc.Send(context.Background(), SendInput{ProjectID: p.ID, Content: "   "}); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("want ErrEmptyContent, got %v", err)
	}
	if _, _, err := svc.Send(context.Background(), SendInput{ProjectID: uuid.New(), Content: "x"}); !errors.Is(err, ErrNoProject) {
		t.Fatalf("want ErrNoProject, got %v", err)
	}
}

func Test_Send_AdminMessageNotifiesClient(t *testing.T) {
	svc, repo, n, _, p := setup(t)
	long := "Segue a nova versão do layout com as alterações pedidas na reunião de ontem, incluindo o rodapé"

	if _, _, err := svc.Send(context.Background(), SendInput{ProjectID: p.ID, SenderType: models.SenderAdmin, Content: long}); err != nil {
		t.Fatal(err)
	}
	if len(n.sent) != 1 {
		t.Fatalf("want 1 notification, got %d", len(n.sent))
	}
	got := n.sent[0]
	if got.UserID != repo.users[p.ClientID].ID {
		t.Fatalf("notification should target the client's user")
	}
	if len([]rune(got.Body)) > previewLen+1 {
		t.Fatalf("preview too long: %q", got.Body)
	}

	if _, _, err := svc.Send(context.Background(), SendInput{ProjectID: p.ID, SenderType: models.SenderClient, Content: "ok"}); err != nil {
		t.Fatal(err)
	}
	if len(n.sent) != 1 {
		t.Fatalf("client messages must not notify")
	}
}

func Test_MarkRead_ScopeAndPublish(t *testing.T) {
	svc, _, _, hub, p := setup(t)
	m, _, _ := svc.Send(context.Background(), SendInput{ProjectID: p.ID, SenderType: models.SenderAdmin, Content: "x"})

	deny := func(uuid.UUID) bool { return false }
	if _, err := svc.MarkRead(context.Background(), m.ID, deny); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign scope, got %v", err)
	}

	sub := hub.Subscribe(realtime.MessagesChannel(p.ID.String()), 4)
	defer sub.Close()
	got, err := svc.MarkRead(context.Background(), m.ID, func(id uuid.UUID) bool { return id == p.ID })
	if err != nil || !got.IsRead {
		t.Fatalf("mark read: %+v %v", got, err)
	}
	select {
	case ev := <-sub.Events:
		if ev.Type != realtime.Update {
			t.Fatalf("want UPDATE, got %s", ev.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no UPDATE published")
	}
}

func Test_Send_CorrelationIsScopedByProject(t *testing.T) {
	svc, repo, _, _, a := setup(t)
	b := &models.Project{ID: uuid.New(), ClientID: uuid.New(), Name: "Loja"}
	repo.projects[b.ID] = b
	ctx := context.Background()
	corr := uuid.NewString()

	if _, _, err := svc.Send(ctx, SendInput{ProjectID: a.ID, SenderID: uuid.New(), SenderType: models.SenderClient, Content: "segredo do cliente A", CorrelationID: corr}); err != nil {
		t.Fatal(err)
	}
	m, created, err := svc.Send(ctx, SendInput{ProjectID: b.ID, SenderID: uuid.New(), SenderType: models.SenderClient, Content: "oi do cliente B", CorrelationID: corr})
	if err != nil {
		t.Fatal(err)
	}
	if !created || m.ProjectID != b.ID || m.Content != "oi do cliente B" {
		t.Fatalf("project B got created=%v %+v", created, m)
	}
	if got, _ := repo.ListMessages(ctx, b.ID); len(got) != 1 {
		t.Fatalf("want B's message stored, got %d", len(got))
	}
}

func Test_Send_CorrelationOfAnotherSenderIsRejected(t *testing.T) {
	for _, claims := range []dedup.Claimer{dedup.NewMemory(time.Minute), alwaysClaim{}} {
		svc, repo, _, _, p := setup(t)
		svc.claims = claims
		ctx := context.Background()
		corr := uuid.NewString()

		if _, _, err := svc.Send(ctx, SendInput{ProjectID: p.ID, SenderID: uuid.New(), SenderType: models.SenderClient, Content: "primeira", CorrelationID: corr}); err != nil {
			t.Fatal(err)
		}
		m, _, err := svc.Send(ctx, SendInput{ProjectID: p.ID, SenderID: AdminSenderID, SenderType: models.SenderAdmin, Content: "outra", CorrelationID: corr})
		if !errors.Is(err, ErrCorrelationTaken) || m != nil {
			t.Fatalf("want ErrCorrelationTaken and no message, got %v %+v", err, m)
		}
		if len(repo.msgs) != 1 {
			t.Fatalf("want 1 stored message, got %d", len(repo.msgs))
		}
	}
}
